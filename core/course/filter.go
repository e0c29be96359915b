package course

// CatalogFilter narrows the public catalog listing. Zero values mean
// "no filter".
type CatalogFilter struct {
	Search   string
	Level    string
	Price    string
	Rating   int
	Featured bool
	Sort     string
}

// AdminFilter narrows the admin review listings.
type AdminFilter struct {
	Status       ApprovalStatus
	InstructorID string
}

// priceClause maps a price-bucket name to its WHERE condition. The
// buckets are fixed, so no bind parameters are needed.
func priceClause(bucket string) (string, bool) {
	switch bucket {
	case "free":
		return "price = 0", true
	case "paid":
		return "price > 0", true
	case "under1000":
		return "price < 1000", true
	case "1000to2000":
		return "price BETWEEN 1000 AND 2000", true
	case "over2000":
		return "price > 2000", true
	}
	return "", false
}

// orderBy maps a catalog sort key to its ORDER BY expression. Unknown
// keys fall back to the popularity ordering.
func orderBy(sort string) string {
	switch sort {
	case "price-low":
		return "price ASC"
	case "price-high":
		return "price DESC"
	case "rating":
		return "average_rating DESC"
	case "newest":
		return "created_at DESC"
	case "duration":
		return "total_duration ASC"
	case "students":
		return "total_students DESC"
	}
	return "total_students DESC, average_rating DESC"
}
