package weekly

import "errors"

var ErrNoBatch = errors.New("no weekly batch covers today")
