package course

import "testing"

func TestPriceClause(t *testing.T) {
	tests := []struct {
		bucket string
		clause string
		ok     bool
	}{
		{"free", "price = 0", true},
		{"paid", "price > 0", true},
		{"under1000", "price < 1000", true},
		{"1000to2000", "price BETWEEN 1000 AND 2000", true},
		{"over2000", "price > 2000", true},
		{"", "", false},
		{"cheap", "", false},
	}

	for _, tt := range tests {
		clause, ok := priceClause(tt.bucket)
		if clause != tt.clause || ok != tt.ok {
			t.Errorf("priceClause(%q) = %q, %v; want %q, %v", tt.bucket, clause, ok, tt.clause, tt.ok)
		}
	}
}

func TestOrderBy(t *testing.T) {
	tests := []struct {
		sort string
		want string
	}{
		{"price-low", "price ASC"},
		{"price-high", "price DESC"},
		{"rating", "average_rating DESC"},
		{"newest", "created_at DESC"},
		{"duration", "total_duration ASC"},
		{"students", "total_students DESC"},
		{"", "total_students DESC, average_rating DESC"},
		{"garbage", "total_students DESC, average_rating DESC"},
	}

	for _, tt := range tests {
		if got := orderBy(tt.sort); got != tt.want {
			t.Errorf("orderBy(%q) = %q, want %q", tt.sort, got, tt.want)
		}
	}
}
