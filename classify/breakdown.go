/*
Package classify turns a recorded working day into regulatory pay buckets.

PURPOSE:
  Given what an employee actually worked, what their contract obligated
  them to work, the night window, and whether the day is a holiday, this
  package produces a 7-bucket minute breakdown:

    overtime group  (paid in full, VARIABLE valuation):
      extra_diurna, extra_nocturna,
      extra_diurna_festivo, extra_nocturna_festivo
    surcharge group (premium only, FIXED valuation):
      recargo_nocturno, dominical_festivo, recargo_nocturno_festivo

INVARIANT:
  All buckets >= 0, and the bucket sum equals the total classified
  minutes for the day. Ordinary daytime minutes on a regular day land in
  no bucket: they are covered by base salary.

KEY CONCEPTS IN THIS FILE (breakdown.go):
  - Bucket: named pay category, stable wire identifiers
  - Breakdown: the 7 minute counters with bucket-indexed access

SEE ALSO:
  - classifier.go: The interval split that fills a Breakdown
  - rates.go: Bucket -> surcharge percentage table
*/
package classify

// Bucket identifies one regulatory pay category.
type Bucket string

const (
	// Overtime group: time worked outside the contracted schedule.
	ExtraDiurna          Bucket = "extra_diurna"
	ExtraNocturna        Bucket = "extra_nocturna"
	ExtraDiurnaFestivo   Bucket = "extra_diurna_festivo"
	ExtraNocturnaFestivo Bucket = "extra_nocturna_festivo"

	// Surcharge group: contracted time that still earns a premium.
	RecargoNocturno        Bucket = "recargo_nocturno"
	DominicalFestivo       Bucket = "dominical_festivo"
	RecargoNocturnoFestivo Bucket = "recargo_nocturno_festivo"
)

// OvertimeBuckets returns the overtime group in bank-draining priority
// order. Banked minutes are subtracted from a day's breakdown in exactly
// this order.
func OvertimeBuckets() []Bucket {
	return []Bucket{ExtraDiurna, ExtraNocturna, ExtraDiurnaFestivo, ExtraNocturnaFestivo}
}

// SurchargeBuckets returns the surcharge group.
func SurchargeBuckets() []Bucket {
	return []Bucket{RecargoNocturno, DominicalFestivo, RecargoNocturnoFestivo}
}

// AllBuckets returns every bucket, overtime group first.
func AllBuckets() []Bucket {
	return append(OvertimeBuckets(), SurchargeBuckets()...)
}

// IsOvertime reports whether the bucket belongs to the overtime group.
func (b Bucket) IsOvertime() bool {
	switch b {
	case ExtraDiurna, ExtraNocturna, ExtraDiurnaFestivo, ExtraNocturnaFestivo:
		return true
	}
	return false
}

// =============================================================================
// BREAKDOWN - Per-day classified minutes
// =============================================================================

// Breakdown holds the classified minutes of one day, one counter per
// bucket. The zero value is a fully-zero classification.
type Breakdown struct {
	ExtraDiurna          int `json:"extra_diurna"`
	ExtraNocturna        int `json:"extra_nocturna"`
	ExtraDiurnaFestivo   int `json:"extra_diurna_festivo"`
	ExtraNocturnaFestivo int `json:"extra_nocturna_festivo"`

	RecargoNocturno        int `json:"recargo_nocturno"`
	DominicalFestivo       int `json:"dominical_festivo"`
	RecargoNocturnoFestivo int `json:"recargo_nocturno_festivo"`
}

// Minutes returns the counter for a bucket. Unknown buckets read as zero.
func (b Breakdown) Minutes(bucket Bucket) int {
	switch bucket {
	case ExtraDiurna:
		return b.ExtraDiurna
	case ExtraNocturna:
		return b.ExtraNocturna
	case ExtraDiurnaFestivo:
		return b.ExtraDiurnaFestivo
	case ExtraNocturnaFestivo:
		return b.ExtraNocturnaFestivo
	case RecargoNocturno:
		return b.RecargoNocturno
	case DominicalFestivo:
		return b.DominicalFestivo
	case RecargoNocturnoFestivo:
		return b.RecargoNocturnoFestivo
	}
	return 0
}

// WithMinutes returns a copy with one bucket counter replaced.
func (b Breakdown) WithMinutes(bucket Bucket, minutes int) Breakdown {
	switch bucket {
	case ExtraDiurna:
		b.ExtraDiurna = minutes
	case ExtraNocturna:
		b.ExtraNocturna = minutes
	case ExtraDiurnaFestivo:
		b.ExtraDiurnaFestivo = minutes
	case ExtraNocturnaFestivo:
		b.ExtraNocturnaFestivo = minutes
	case RecargoNocturno:
		b.RecargoNocturno = minutes
	case DominicalFestivo:
		b.DominicalFestivo = minutes
	case RecargoNocturnoFestivo:
		b.RecargoNocturnoFestivo = minutes
	}
	return b
}

// Add returns the bucket-wise sum of two breakdowns.
func (b Breakdown) Add(o Breakdown) Breakdown {
	for _, bucket := range AllBuckets() {
		b = b.WithMinutes(bucket, b.Minutes(bucket)+o.Minutes(bucket))
	}
	return b
}

// Total returns the sum over all buckets.
func (b Breakdown) Total() int {
	total := 0
	for _, bucket := range AllBuckets() {
		total += b.Minutes(bucket)
	}
	return total
}

// OvertimeTotal returns the sum over the overtime group only.
func (b Breakdown) OvertimeTotal() int {
	total := 0
	for _, bucket := range OvertimeBuckets() {
		total += b.Minutes(bucket)
	}
	return total
}

// IsZero reports whether every bucket is zero.
func (b Breakdown) IsZero() bool { return b == Breakdown{} }
