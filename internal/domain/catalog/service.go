package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ehr/fhirviewer/internal/platform/fhir"
	"github.com/ehr/fhirviewer/internal/platform/store"
)

var (
	// ErrUnknownNamespace is returned for a namespace absent from the index.
	ErrUnknownNamespace = errors.New("unknown namespace")
	// ErrNotProfile is returned when comparing a definition that constrains nothing.
	ErrNotProfile = errors.New("definition is not a profile")
)

// DefaultBaseNamespace holds the base resources profiles are compared against.
const DefaultBaseNamespace = store.NamespaceFHIRR4

type Service struct {
	store   *store.Store
	policy  fhir.InheritancePolicy
	builder *fhir.TreeBuilder
	logger  zerolog.Logger
}

func NewService(s *store.Store, policy fhir.InheritancePolicy, descriptionLimit int, logger zerolog.Logger) *Service {
	return &Service{
		store:   s,
		policy:  policy,
		builder: &fhir.TreeBuilder{DescriptionLimit: descriptionLimit},
		logger:  logger,
	}
}

func (s *Service) checkNamespace(ctx context.Context, namespace string) error {
	namespaces, err := s.store.Namespaces(ctx)
	if err != nil {
		return err
	}
	for _, ns := range namespaces {
		if ns == namespace {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownNamespace, namespace)
}

// Namespaces lists the catalog's namespaces.
func (s *Service) Namespaces(ctx context.Context) ([]string, error) {
	return s.store.Namespaces(ctx)
}

// List returns the namespace's definitions sorted by name. entryType narrows
// to resources, profiles or datatypes; empty means all.
func (s *Service) List(ctx context.Context, namespace, entryType string) ([]Summary, error) {
	if err := s.checkNamespace(ctx, namespace); err != nil {
		return nil, err
	}
	entries, err := s.store.List(ctx, namespace, entryType)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(entries))
	for i, e := range entries {
		out[i] = summaryFromEntry(e)
	}
	return out, nil
}

// Get returns the normalized descriptor.
func (s *Service) Get(ctx context.Context, namespace, name string) (*fhir.ResourceDescriptor, error) {
	return s.store.Get(ctx, name, namespace)
}

// Tree builds the display forest for a definition and applies opts.
func (s *Service) Tree(ctx context.Context, namespace, name string, opts fhir.FilterOptions) (*TreeView, error) {
	d, err := s.store.Get(ctx, name, namespace)
	if err != nil {
		return nil, err
	}
	cls := fhir.Classify(d, s.policy)
	display := fhir.DisplayName(d)
	forest := fhir.FilterTree(s.builder.Build(d.Elements, display, cls), opts)

	return &TreeView{
		Name:        d.Name,
		DisplayName: display,
		Namespace:   d.Namespace,
		Kind:        d.Kind,
		Base:        cls.Base.Label(),
		FieldCount:  fhir.CountFields(forest),
		Fields:      forest,
	}, nil
}

// Compare diffs a profile against the base resource it constrains, looked up
// in baseNamespace (DefaultBaseNamespace when empty).
func (s *Service) Compare(ctx context.Context, namespace, name, baseNamespace string) (*Comparison, error) {
	if baseNamespace == "" {
		baseNamespace = DefaultBaseNamespace
	}
	profile, err := s.store.Get(ctx, name, namespace)
	if err != nil {
		return nil, err
	}
	if !profile.IsProfile() || profile.BaseType == "" {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotProfile, namespace, name)
	}
	base, err := s.store.Get(ctx, profile.BaseType, baseNamespace)
	if err != nil {
		return nil, fmt.Errorf("base %s: %w", profile.BaseType, err)
	}

	result := fhir.CompareDescriptors(profile, base)
	if result.Overlap == 0 {
		s.logger.Warn().Str("profile", name).Str("base", base.Name).Msg("profile shares no paths with its base")
	}
	return &Comparison{Namespace: namespace, BaseNamespace: baseNamespace, ComparisonResult: result}, nil
}

// Reload drops every cache and rereads the index.
func (s *Service) Reload(ctx context.Context) (*Stats, error) {
	if err := s.store.Reload(ctx); err != nil {
		return nil, err
	}
	s.logger.Info().Msg("catalog reloaded")
	return s.Stats(ctx)
}

// Stats reports catalog size and cache counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	idx, err := s.store.Index(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Namespaces:  idx.Namespaces(),
		Definitions: len(idx.ByName),
		Cache:       s.store.Stats(),
	}, nil
}
