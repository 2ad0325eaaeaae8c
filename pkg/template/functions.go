package template

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// funcTimestamp returns milliseconds since the epoch, decimal.
func funcTimestamp() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// isoMillis is RFC 3339 with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// funcISODate returns the current UTC time with millisecond precision.
func funcISODate() string {
	return time.Now().UTC().Format(isoMillis)
}

// funcUUID generates a random version-4 UUID.
func funcUUID() string {
	return uuid.NewString()
}

// funcRandomInt returns a uniform integer in [min, max] as a string.
func funcRandomInt(min, max int) string {
	return strconv.Itoa(min + rand.IntN(max-min+1))
}

// funcRandomFloat returns a uniform real in [min, max) with fixed precision.
func funcRandomFloat(min, max float64, precision int) string {
	return strconv.FormatFloat(min+rand.Float64()*(max-min), 'f', precision, 64)
}

const alphanumerics = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// funcRandomString returns n random alphanumerics.
func funcRandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumerics[rand.IntN(len(alphanumerics))]
	}
	return string(b)
}

const lowerAlphanumerics = "abcdefghijklmnopqrstuvwxyz0123456789"

// funcRandomEmail returns an eight-character local part at one of the fixed
// domains.
func funcRandomEmail() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = lowerAlphanumerics[rand.IntN(len(lowerAlphanumerics))]
	}
	return string(b) + "@" + emailDomains[rand.IntN(len(emailDomains))]
}

// funcRandomName returns a first and last name drawn from the fixed lists.
func funcRandomName() string {
	return firstNames[rand.IntN(len(firstNames))] + " " + lastNames[rand.IntN(len(lastNames))]
}

// funcRandomBoolean returns "true" or "false" uniformly.
func funcRandomBoolean() string {
	return strconv.FormatBool(rand.IntN(2) == 0)
}
