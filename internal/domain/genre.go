package domain

// Genre is an open set: catalog entries may carry genres not listed here.
type Genre string

func (g Genre) String() string {
	return string(g)
}

const (
	GenreFiction        Genre = "Fiction"
	GenreNonFiction     Genre = "Non-Fiction"
	GenreBiography      Genre = "Biography"
	GenreSelfHelp       Genre = "Self-Help"
	GenreThriller       Genre = "Thriller"
	GenreScienceFiction Genre = "Science Fiction"
	GenreFantasy        Genre = "Fantasy"
	GenreMystery        Genre = "Mystery"
	GenreRomance        Genre = "Romance"
	GenreHorror         Genre = "Horror"
	GenreHistory        Genre = "History"
	GenreBusiness       Genre = "Business"
	GenreChildrens      Genre = "Children's"
	GenreYoungAdult     Genre = "Young Adult"
	GenrePoetry         Genre = "Poetry"
	GenreOther          Genre = "Other"
)

// BrowseGenres are the genre facets offered on the browse page.
var BrowseGenres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreBiography,
	GenreSelfHelp,
	GenreThriller,
	GenreScienceFiction,
	GenreFantasy,
}

// ListingGenres are the genres a seller can pick when creating a listing.
var ListingGenres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreMystery,
	GenreScienceFiction,
	GenreFantasy,
	GenreRomance,
	GenreThriller,
	GenreHorror,
	GenreBiography,
	GenreHistory,
	GenreSelfHelp,
	GenreBusiness,
	GenreChildrens,
	GenreYoungAdult,
	GenrePoetry,
	GenreOther,
}

// Condition is the physical state of a catalog copy.
type Condition string

func (c Condition) String() string {
	return string(c)
}

const (
	ConditionNew        Condition = "New"
	ConditionLikeNew    Condition = "Used - Like New"
	ConditionGood       Condition = "Used - Good"
	ConditionAcceptable Condition = "Used - Acceptable"
)

var BrowseConditions = []Condition{
	ConditionNew,
	ConditionLikeNew,
	ConditionGood,
	ConditionAcceptable,
}
