package constant

const (
	REQUEST_SUCCESSFUL   = "Request successful"
	REQUEST_UNSUCCESSFUL = "Request unsuccessful"
)

// Page size used when listing students from the platform API
const DefaultPageSize = 100
