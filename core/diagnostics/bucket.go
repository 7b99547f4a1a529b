package diagnostics

// Bucket is a discrete quality tier derived from R²
type Bucket string

const (
	BucketExcellent Bucket = "excellent"
	BucketGood      Bucket = "good"
	BucketFair      Bucket = "fair"
	BucketPoor      Bucket = "poor"
)

// Classify maps R² to its bucket. NaN is poor.
func Classify(r2 float64) Bucket {
	switch {
	case r2 >= 0.9:
		return BucketExcellent
	case r2 >= 0.7:
		return BucketGood
	case r2 >= 0.5:
		return BucketFair
	default:
		return BucketPoor
	}
}

// Color is the tag color used for the bucket
func (b Bucket) Color() string {
	switch b {
	case BucketExcellent:
		return "green"
	case BucketGood:
		return "blue"
	case BucketFair:
		return "orange"
	default:
		return "red"
	}
}
