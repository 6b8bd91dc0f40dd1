// Package salesperson resolves upstream salesperson ids to display names.
// Lookups are batched once per sync run and cached for the rest of the run.
package salesperson

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	credentialdomain "github.com/clustersystems/commission-tracker/internal/credential/domain"
	"github.com/clustersystems/commission-tracker/internal/zoho"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Zoho *zoho.Client
}

type Service struct {
	log  *zap.Logger
	zoho *zoho.Client
}

func New(p Params) *Service {
	return &Service{
		log:  p.Log.Named("salesperson.resolver"),
		zoho: p.Zoho,
	}
}

// BeginRun prefetches the full salesperson listing for one sync run. Plans
// without the endpoint degrade to an empty directory; resolution then relies
// on the per-invoice contact fallback.
func (s *Service) BeginRun(ctx context.Context, cred *credentialdomain.Credential) *Directory {
	dir := &Directory{
		log:    s.log,
		zoho:   s.zoho,
		cred:   cred,
		names:  make(map[string]string),
		misses: make(map[string]struct{}),
	}

	people, err := s.zoho.ListSalespersons(ctx, cred.APIDomain, cred.AccessToken)
	if err != nil {
		if errors.Is(err, zoho.ErrUnsupportedFeature) {
			s.log.Info("salesperson listing not available on this plan, using contact fallback")
		} else {
			s.log.Warn("salesperson prefetch failed, using contact fallback", zap.Error(err))
		}
		return dir
	}

	for _, p := range people {
		if p.SalespersonID == "" || p.SalespersonName == "" {
			continue
		}
		dir.names[p.SalespersonID] = p.SalespersonName
	}
	s.log.Debug("salesperson directory prefetched", zap.Int("count", len(dir.names)))
	return dir
}

// Directory is a run-scoped name cache. It is not safe for concurrent use;
// a sync run resolves invoices sequentially.
type Directory struct {
	log    *zap.Logger
	zoho   *zoho.Client
	cred   *credentialdomain.Credential
	names  map[string]string
	misses map[string]struct{}
}

// ResolveName returns the display name for a salesperson id. Misses fall
// back to the contacts endpoint once per id; failed lookups are cached as
// not-found so one bad id never costs more than one upstream call.
func (d *Directory) ResolveName(ctx context.Context, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	if name, ok := d.names[id]; ok {
		return name, true
	}
	if _, missed := d.misses[id]; missed {
		return "", false
	}

	contact, err := d.zoho.GetContact(ctx, d.cred.APIDomain, d.cred.AccessToken, id)
	if err != nil {
		d.log.Warn("contact lookup failed", zap.String("salesperson_id", id), zap.Error(err))
		d.misses[id] = struct{}{}
		return "", false
	}

	name := displayName(contact)
	if name == "" {
		d.misses[id] = struct{}{}
		return "", false
	}
	d.names[id] = name
	return name, true
}

func displayName(c *zoho.RawContact) string {
	if c == nil {
		return ""
	}
	switch {
	case c.ContactName != "":
		return c.ContactName
	case c.CompanyName != "":
		return c.CompanyName
	default:
		return c.SalespersonName
	}
}
