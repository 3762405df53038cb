package document

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	password    string
	hasPassword bool
	maxPages    int
}

// WithPassword supplies the user or owner password of an encrypted document.
// Without it Parse rejects every encrypted input.
func WithPassword(password string) ParseOption {
	return func(c *parseConfig) {
		c.password = password
		c.hasPassword = true
	}
}

// WithMaxPages aborts page-tree traversal once more than n pages are found.
// Zero or a negative value disables the limit.
func WithMaxPages(n int) ParseOption {
	return func(c *parseConfig) {
		c.maxPages = n
	}
}

// Option configures a document created with New.
type Option func(*Document)

// WithVersion sets the PDF version written to the file header.
func WithVersion(version string) Option {
	return func(d *Document) {
		d.Version = version
	}
}

// WithMetadata sets the document information dictionary.
func WithMetadata(m Metadata) Option {
	return func(d *Document) {
		d.Metadata = m
	}
}

// WithProducer sets the Producer entry of the document information
// dictionary.
func WithProducer(producer string) Option {
	return func(d *Document) {
		d.Metadata.Producer = producer
	}
}

// New creates an empty document.
//
// Example:
//
//	doc := document.New(
//	    document.WithVersion("1.7"),
//	    document.WithProducer("pdfops"),
//	)
func New(opts ...Option) *Document {
	d := &Document{
		Version: DefaultVersion,
		objects: make(map[int]Object),
		nextNum: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}
