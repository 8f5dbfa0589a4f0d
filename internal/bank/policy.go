package bank

// Policy chooses which resident bank gives up its buffer. Candidates is never
// empty and never contains the demanded bank.
type Policy interface {
	Victim(candidates []int) int
}

// RoundRobin cycles through the candidate list on successive evictions.
type RoundRobin struct {
	next int
}

func (r *RoundRobin) Victim(candidates []int) int {
	v := candidates[r.next%len(candidates)]
	r.next++
	return v
}
