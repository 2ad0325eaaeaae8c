package template

// Fixed sample data for the random generators.

var emailDomains = []string{
	"example.com",
	"test.com",
	"demo.net",
	"mock.io",
	"sample.org",
}

var firstNames = []string{
	"James", "Mary", "John", "Patricia", "Robert",
	"Jennifer", "Michael", "Linda", "David", "Elizabeth",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones",
	"Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
}
