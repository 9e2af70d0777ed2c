package env

import "os"

// Get returns the value of the given environment variable or a fallback.
// Variables are looked up under the AGROVET_ prefix first so deploys can
// scope everything to one namespace; the bare name still works locally.
func Get(key, fallback string) string {
	if val := os.Getenv("AGROVET_" + key); val != "" {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
