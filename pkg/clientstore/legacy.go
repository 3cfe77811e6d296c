package clientstore

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Keys of the original browser storage, where every value was itself a
// JSON-encoded string.
const (
	legacyWeeklyKey      = "weeklyFactMap"
	legacyEncounteredKey = "encounteredFacts"
	legacyNewIDsKey      = "newFactIds"
	legacyLastShownKey   = "lastDailyFactDate"
)

type legacyWeekly struct {
	StartDate string            `json:"startDate"`
	Facts     map[string]string `json:"facts"` // date -> fact
}

// migrateV0 converts the flat key/value dump into the typed state. Entries
// that fail to parse are dropped individually.
func migrateV0(data []byte) (State, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, err
	}
	state := Empty()

	if v, ok := raw[legacyWeeklyKey]; ok {
		var lw legacyWeekly
		if json.Unmarshal([]byte(v), &lw) == nil && lw.StartDate != "" {
			dates := make([]string, 0, len(lw.Facts))
			for d := range lw.Facts {
				dates = append(dates, d)
			}
			sort.Strings(dates)
			batch := &WeeklyBatch{StartDate: lw.StartDate}
			for _, d := range dates {
				batch.Facts = append(batch.Facts, lw.Facts[d])
			}
			state.Weekly = batch
		}
	}

	if v, ok := raw[legacyEncounteredKey]; ok {
		var enc map[string]string
		if json.Unmarshal([]byte(v), &enc) == nil {
			for k, text := range enc {
				if id, err := strconv.Atoi(k); err == nil {
					state.Encountered[id] = text
				}
			}
		}
	}

	if v, ok := raw[legacyNewIDsKey]; ok {
		var ids []int
		if json.Unmarshal([]byte(v), &ids) == nil {
			sort.Ints(ids)
			state.NewIDs = ids
		}
	}

	state.LastShownDate = raw[legacyLastShownKey]
	return state, nil
}
