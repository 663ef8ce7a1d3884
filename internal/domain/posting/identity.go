package posting

import (
	"strings"

	"github.com/google/uuid"

	"github.com/honeycarbs/jobingest/internal/domain"
)

// fallbackNamespace scopes the name-based UUIDs minted for postings without a native id
var fallbackNamespace = uuid.MustParse("6f1c7a4e-2b0d-5d8e-9a55-3c1f0e2b7d41")

// IdentityKey builds "<source>_<nativeID>". When the provider omits its id the
// suffix is a UUIDv5 over source, title, company and location, so re-fetching
// the same upstream record always yields the same key.
func IdentityKey(source domain.Source, nativeID, title, company, location string) string {
	nativeID = strings.TrimSpace(nativeID)
	if nativeID == "" {
		name := strings.Join([]string{
			string(source),
			strings.ToLower(strings.TrimSpace(title)),
			strings.ToLower(strings.TrimSpace(company)),
			strings.ToLower(strings.TrimSpace(location)),
		}, "|")
		nativeID = uuid.NewSHA1(fallbackNamespace, []byte(name)).String()
	}
	return string(source) + "_" + nativeID
}
