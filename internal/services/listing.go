package services

import (
	"math"
	"sort"
	"strings"

	"github.com/shelftalk/apiserver/types"
)

// PageSize is the fixed number of books per listing page.
const PageSize = 5

// GenreAll is the sentinel genre filter value meaning "no genre
// restriction".
const GenreAll = "All"

// Sort keys accepted by the listing endpoint. Anything else falls back
// to SortTitleAsc.
const (
	SortTitleAsc   = "title_asc"
	SortYearDesc   = "year_desc"
	SortYearAsc    = "year_asc"
	SortRatingDesc = "rating_desc"
	SortRatingAsc  = "rating_asc"
)

// ListingQuery carries the listing parameters. A Page below 1 is
// treated as 1.
type ListingQuery struct {
	Page   int
	Search string
	Genre  string
	Sort   string
}

type ratingStats struct {
	sum   int
	count int
}

// BuildListing computes a listing page from the full book and review
// collections. It is a pure function: per-book average rating and
// review count are derived from the reviews, the match predicate and
// sort order are applied before pagination, and the genre facet is
// computed from the unfiltered book collection.
func BuildListing(books []types.Book, reviews []types.Review, q ListingQuery) types.Listing {
	page := q.Page
	if page < 1 {
		page = 1
	}

	stats := make(map[int]ratingStats, len(books))
	for _, review := range reviews {
		s := stats[review.BookID]
		s.sum += review.Rating
		s.count++
		stats[review.BookID] = s
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	genre := strings.TrimSpace(q.Genre)

	matched := make([]types.BookSummary, 0, len(books))
	for _, book := range books {
		if search != "" &&
			!strings.Contains(strings.ToLower(book.Title), search) &&
			!strings.Contains(strings.ToLower(book.Author), search) {
			continue
		}
		if genre != "" && genre != GenreAll && book.Genre != genre {
			continue
		}
		matched = append(matched, summarize(book, stats[book.ID]))
	}

	sortSummaries(matched, q.Sort)

	total := len(matched)
	totalPages := (total + PageSize - 1) / PageSize

	offset := (page - 1) * PageSize
	if offset > total {
		offset = total
	}
	end := offset + PageSize
	if end > total {
		end = total
	}

	return types.Listing{
		Books:       matched[offset:end],
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalBooks:  total,
		Genres:      distinctGenres(books),
	}
}

func summarize(book types.Book, s ratingStats) types.BookSummary {
	summary := types.BookSummary{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Genre:       book.Genre,
		Year:        book.Year,
		Owner: types.UserRef{
			ID:    book.OwnerID,
			Name:  book.OwnerName,
			Email: book.OwnerEmail,
		},
		ReviewCount: s.count,
	}
	if s.count > 0 {
		summary.AverageRating = float64(s.sum) / float64(s.count)
	}
	return summary
}

// sortSummaries orders a listing in place. Every key except the title
// sort breaks ties by title ascending.
func sortSummaries(books []types.BookSummary, key string) {
	switch key {
	case SortYearDesc:
		sort.SliceStable(books, func(i, j int) bool {
			if books[i].Year != books[j].Year {
				return books[i].Year > books[j].Year
			}
			return books[i].Title < books[j].Title
		})
	case SortYearAsc:
		sort.SliceStable(books, func(i, j int) bool {
			if books[i].Year != books[j].Year {
				return books[i].Year < books[j].Year
			}
			return books[i].Title < books[j].Title
		})
	case SortRatingDesc:
		sort.SliceStable(books, func(i, j int) bool {
			if books[i].AverageRating != books[j].AverageRating {
				return books[i].AverageRating > books[j].AverageRating
			}
			return books[i].Title < books[j].Title
		})
	case SortRatingAsc:
		sort.SliceStable(books, func(i, j int) bool {
			if books[i].AverageRating != books[j].AverageRating {
				return books[i].AverageRating < books[j].AverageRating
			}
			return books[i].Title < books[j].Title
		})
	default:
		sort.SliceStable(books, func(i, j int) bool {
			return books[i].Title < books[j].Title
		})
	}
}

func distinctGenres(books []types.Book) []string {
	seen := make(map[string]struct{}, len(books))
	genres := make([]string, 0, len(books))
	for _, book := range books {
		if book.Genre == "" {
			continue
		}
		if _, ok := seen[book.Genre]; ok {
			continue
		}
		seen[book.Genre] = struct{}{}
		genres = append(genres, book.Genre)
	}
	sort.Strings(genres)
	return genres
}

// summarizeReviews computes the detail-view aggregates for one book:
// the average rating rounded to two decimal places and the rating
// histogram, sorted by star value descending. Star values with no
// reviews are omitted; the consuming UI backfills zero-count buckets.
func summarizeReviews(reviews []types.Review) (float64, []types.RatingBucket) {
	if len(reviews) == 0 {
		return 0, []types.RatingBucket{}
	}

	sum := 0
	counts := make(map[int]int, 5)
	for _, review := range reviews {
		sum += review.Rating
		counts[review.Rating]++
	}

	distribution := make([]types.RatingBucket, 0, len(counts))
	for rating := 5; rating >= 1; rating-- {
		if counts[rating] > 0 {
			distribution = append(distribution, types.RatingBucket{
				Rating: rating,
				Count:  counts[rating],
			})
		}
	}

	average := float64(sum) / float64(len(reviews))
	return round2(average), distribution
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
