package storage

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/models"
)

const servingRunPath = "serving-run"

// RunURI is an opaque reference to one serving run row, used for deep links
// such as dcalt://main/serving-run/<id>.
type RunURI struct {
	Partition models.Partition
	ID        string
}

func (u RunURI) String() string {
	return (&url.URL{
		Scheme: constants.URIScheme,
		Host:   string(u.Partition),
		Path:   "/" + servingRunPath + "/" + url.PathEscape(u.ID),
	}).String()
}

// ParseRunURI parses a reference produced by RunURI.String.
func ParseRunURI(raw string) (RunURI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return RunURI{}, fmt.Errorf("invalid serving run uri %q: %w", raw, err)
	}
	if u.Scheme != constants.URIScheme {
		return RunURI{}, fmt.Errorf("invalid serving run uri %q: scheme must be %q", raw, constants.URIScheme)
	}

	partition, err := models.ParsePartition(u.Host)
	if err != nil {
		return RunURI{}, fmt.Errorf("invalid serving run uri %q: %w", raw, err)
	}

	parts := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(parts) != 2 || parts[0] != servingRunPath || parts[1] == "" {
		return RunURI{}, fmt.Errorf("invalid serving run uri %q: expected /%s/<id>", raw, servingRunPath)
	}
	id, err := url.PathUnescape(parts[1])
	if err != nil {
		return RunURI{}, fmt.Errorf("invalid serving run uri %q: %w", raw, err)
	}

	return RunURI{Partition: partition, ID: id}, nil
}
