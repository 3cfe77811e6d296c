package library

import "sort"

// FactsPerPage is the number of fact cards on one grid page.
const FactsPerPage = 9

// PagesFor returns the page count for a library of total facts: the intro
// page plus enough grid pages to hold them.
func PagesFor(total int) int {
	if total <= 0 {
		return 1
	}
	return 1 + (total+FactsPerPage-1)/FactsPerPage
}

// FactNumber is the fact shown in slot of grid page page (page >= 1).
func FactNumber(page, slot int) int {
	return (page-1)*FactsPerPage + slot + 1
}

// PageOf returns the grid page holding fact number n.
func PageOf(n int) int {
	if n < 1 {
		return 0
	}
	return (n-1)/FactsPerPage + 1
}

type Card struct {
	Number      int
	Text        string
	Encountered bool
	New         bool
}

// Cards lays out one grid page from the user's encountered facts.
func Cards(page int, encountered map[int]string, notes *Notifications) []Card {
	if page < 1 {
		return nil
	}
	cards := make([]Card, FactsPerPage)
	for slot := range cards {
		n := FactNumber(page, slot)
		text, ok := encountered[n]
		cards[slot] = Card{
			Number:      n,
			Text:        text,
			Encountered: ok,
			New:         ok && notes != nil && notes.Has(n),
		}
	}
	return cards
}

// Notifications is the set of facts flagged as new until the user views them.
type Notifications struct {
	ids map[int]struct{}
}

func NewNotifications(ids ...int) *Notifications {
	n := &Notifications{ids: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		n.Add(id)
	}
	return n
}

func (n *Notifications) Add(id int) {
	n.ids[id] = struct{}{}
}

// View clears the flag and reports whether it was set.
func (n *Notifications) View(id int) bool {
	if _, ok := n.ids[id]; !ok {
		return false
	}
	delete(n.ids, id)
	return true
}

func (n *Notifications) Has(id int) bool {
	_, ok := n.ids[id]
	return ok
}

func (n *Notifications) Len() int {
	return len(n.ids)
}

func (n *Notifications) IDs() []int {
	out := make([]int, 0, len(n.ids))
	for id := range n.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
