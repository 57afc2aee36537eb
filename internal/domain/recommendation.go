package domain

// RecommendationRequest carries the mood/context inputs for one request.
type RecommendationRequest struct {
	Coffee   string
	Mood     string
	Audience Audience
	Lang     string
}

// Book is a catalog item returned by the books category.
type Book struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	InfoLink    string   `json:"info_link"`
}

// Movie is a catalog item returned by the movies category.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterURL   string  `json:"poster_url"`
	Rating      float64 `json:"rating"`
	VoteCount   int     `json:"vote_count"`
	ReleaseDate string  `json:"release_date"`
}

// Track is a catalog item returned by the music category.
type Track struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	PreviewURL  string   `json:"preview_url"`
	ExternalURL string   `json:"external_url"`
}

// Recommendation is the composed result of one recommendation flow before
// transport shaping.
type Recommendation struct {
	Books     []Book
	Movies    []Movie
	Tracks    []Track
	VibeLogic string
}

// Empty reports whether no catalog produced any item.
func (r *Recommendation) Empty() bool {
	return len(r.Books) == 0 && len(r.Movies) == 0 && len(r.Tracks) == 0
}
