package domain

// Member is a legislator, keyed by the stable external identifier from the extract.
type Member struct {
	ID       int64   `db:"id"`
	Name     string  `db:"name"`
	Party    string  `db:"party"`
	Region   string  `db:"region"` // two-letter state code
	PhotoURL *string `db:"photo_url"`
	Email    *string `db:"email"`
}

// Bill is a legislative proposition.
type Bill struct {
	ID       int64  `db:"id"`
	TypeCode string `db:"type_code"` // PL, PEC, MPV, ...
	Number   int    `db:"number"`
	Year     int    `db:"year"`
	Summary  string `db:"summary"` // ementa
	AuthorID *int64 `db:"author_id"`
}

// BillText is the projection the classification and enrichment stages read.
type BillText struct {
	ID       int64  `db:"id"`
	TypeCode string `db:"type_code"`
	Number   int    `db:"number"`
	Year     int    `db:"year"`
	Summary  string `db:"summary"`
}
