/*
allocate.go - Pure FIFO batch allocator

PURPOSE:
  Given {bucket -> minutes requested} and the employee's recorded days
  ordered oldest-first, decide how much of each day feeds the bank.
  Oldest surplus is consumed first so banked time never outlives the
  allocation window unnecessarily.

GUARANTEES:
  - Never banks more than was actually earned in that bucket on that
    day: available = earned - already allocated (persisted Desglose).
  - Supports repeated partial passes: a re-run allocates only the delta
    still missing, which also makes persistence retries idempotent.
  - Pure over the in-memory slice; the caller persists the updates.
*/
package bank

import "github.com/warp/overtime-engine/classify"

// AllocationRequest maps overtime buckets to requested minutes.
type AllocationRequest map[classify.Bucket]int

// Total sums the requested minutes.
func (r AllocationRequest) Total() int {
	total := 0
	for _, m := range r {
		total += m
	}
	return total
}

// DayAllocation is the outcome of one pass for a single day: the
// minutes newly taken from each bucket.
type DayAllocation struct {
	DayID string
	Taken Desglose
}

// Allocate walks each requested bucket over the days oldest-first,
// taking min(remaining, available) from every day until the request is
// satisfied or the days are exhausted. days must be sorted by date
// ascending. Returns the per-day allocations and whatever could not be
// satisfied.
//
// Only overtime buckets are allocatable; surcharge buckets in the
// request are returned untouched in remaining.
func Allocate(req AllocationRequest, days []*RecordedDay) ([]DayAllocation, AllocationRequest) {
	remaining := make(AllocationRequest, len(req))
	for bucket, minutes := range req {
		remaining[bucket] = minutes
	}

	byDay := make(map[string]Desglose)
	var order []string

	for _, bucket := range classify.OvertimeBuckets() {
		need := remaining[bucket]
		if need <= 0 {
			continue
		}
		for _, day := range days {
			if need == 0 {
				break
			}
			available := day.AvailableMinutes(bucket)
			// Allocation from this pass also counts against availability.
			available -= byDay[day.ID].Minutes(bucket)
			if available <= 0 {
				continue
			}
			take := available
			if need < take {
				take = need
			}
			if byDay[day.ID] == nil {
				byDay[day.ID] = Desglose{}
				order = append(order, day.ID)
			}
			byDay[day.ID][bucket] += take
			need -= take
		}
		if need == 0 {
			delete(remaining, bucket)
		} else {
			remaining[bucket] = need
		}
	}

	allocations := make([]DayAllocation, 0, len(order))
	for _, dayID := range order {
		allocations = append(allocations, DayAllocation{DayID: dayID, Taken: byDay[dayID]})
	}
	return allocations, remaining
}
