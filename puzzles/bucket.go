package puzzles

import "fmt"

// Bucket is a difficulty grouping in the puzzle catalog.
type Bucket string

const (
	Beginner     Bucket = "beginner"
	Intermediate Bucket = "intermediate"
	Expert       Bucket = "expert"
)

var bucketOrder = []Bucket{Beginner, Intermediate, Expert}

// Buckets returns every bucket in catalog order.
func Buckets() []Bucket {
	out := make([]Bucket, len(bucketOrder))
	copy(out, bucketOrder)
	return out
}

// ParseBucket converts a catalog key into a Bucket.
func ParseBucket(s string) (Bucket, error) {
	for _, b := range bucketOrder {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown bucket %q", s)
}

func (b Bucket) String() string {
	return string(b)
}
