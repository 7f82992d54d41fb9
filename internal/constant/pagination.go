package constant

const (
	DEFAULT_PAGE  = 1
	DEFAULT_LIMIT = 10
	MAX_LIMIT     = 100
)
