package academic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/janzheng/mailcheck/internal/core"
	"go.uber.org/zap"
)

// Resolver decides whether an address belongs to an academic institution by
// matching its domain against academic TLD suffixes and a name catalogue. The
// builtin catalogue can be extended from a JSON file mapping domain to
// institution name.
type Resolver struct {
	institutions map[string]string
	logger       *zap.Logger
}

// Suffixes that mark a domain as academic regardless of the catalogue.
var academicSuffixes = []string{
	".edu",
	".ac.uk",
	".edu.au",
	".edu.cn",
	".edu.sg",
	".edu.hk",
	".edu.in",
	".edu.mx",
	".edu.br",
	".ac.jp",
	".ac.kr",
	".ac.nz",
	".ac.za",
	".ac.in",
	".uni-muenchen.de",
}

// A small builtin catalogue for institutions whose domains do not carry an
// academic suffix, plus well known ones so lookups resolve to a name.
var builtinInstitutions = map[string]string{
	"mit.edu":                "Massachusetts Institute of Technology",
	"stanford.edu":           "Stanford University",
	"harvard.edu":            "Harvard University",
	"berkeley.edu":           "University of California, Berkeley",
	"cmu.edu":                "Carnegie Mellon University",
	"ox.ac.uk":               "University of Oxford",
	"cam.ac.uk":              "University of Cambridge",
	"ethz.ch":                "ETH Zurich",
	"epfl.ch":                "EPFL",
	"u-tokyo.ac.jp":          "The University of Tokyo",
	"tudelft.nl":             "Delft University of Technology",
	"uva.nl":                 "University of Amsterdam",
	"kuleuven.be":            "KU Leuven",
	"unimelb.edu.au":         "University of Melbourne",
	"utoronto.ca":            "University of Toronto",
	"mcgill.ca":              "McGill University",
	"ubc.ca":                 "University of British Columbia",
	"uni-heidelberg.de":      "Heidelberg University",
	"sorbonne-universite.fr": "Sorbonne University",
}

// NewResolver creates a resolver. When institutionsFile is non-empty it must
// point at a JSON object of domain to institution name; entries there extend
// and override the builtin catalogue.
func NewResolver(institutionsFile string, logger *zap.Logger) (*Resolver, error) {
	institutions := make(map[string]string, len(builtinInstitutions))
	for domain, name := range builtinInstitutions {
		institutions[domain] = name
	}

	if institutionsFile != "" {
		data, err := os.ReadFile(institutionsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read institutions file: %w", err)
		}
		var extra map[string]string
		if err := json.Unmarshal(data, &extra); err != nil {
			return nil, fmt.Errorf("failed to parse institutions file: %w", err)
		}
		for domain, name := range extra {
			institutions[strings.ToLower(strings.TrimSpace(domain))] = strings.TrimSpace(name)
		}
		logger.Info("Loaded institutions catalogue",
			zap.String("file", institutionsFile),
			zap.Int("entries", len(extra)))
	}

	return &Resolver{institutions: institutions, logger: logger}, nil
}

// Lookup resolves academic info for an address. It walks the domain from the
// most specific label upward, so mail.cs.stanford.edu resolves through
// cs.stanford.edu and stanford.edu.
func (r *Resolver) Lookup(_ context.Context, email string) (core.AcademicInfo, error) {
	domain := core.EmailDomain(email)
	if domain == "" {
		return core.AcademicInfo{}, nil
	}

	info := core.AcademicInfo{}
	for _, suffix := range academicSuffixes {
		if strings.HasSuffix(domain, suffix) || domain == strings.TrimPrefix(suffix, ".") {
			info.Academic = true
			break
		}
	}

	// Walk subdomains toward the registrable domain looking for a name.
	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		candidate := strings.Join(labels[i:], ".")
		if name, ok := r.institutions[candidate]; ok {
			info.Academic = true
			if info.Institution == "" {
				info.Institution = name
			}
			break
		}
	}

	return info, nil
}
