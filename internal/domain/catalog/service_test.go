package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/fhirviewer/internal/platform/fhir"
	"github.com/ehr/fhirviewer/internal/platform/store"
)

func TestService_List(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	all, err := svc.List(ctx, store.NamespaceFHIRR4, "")
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"Address", "Broken", "Patient"}, names)

	datatypes, err := svc.List(ctx, store.NamespaceFHIRR4, store.EntryDatatype)
	require.NoError(t, err)
	require.Len(t, datatypes, 1)
	assert.Equal(t, "complex-type", datatypes[0].Kind)

	profiles, err := svc.List(ctx, store.NamespaceUSCore, store.EntryProfile)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "USCorePatientProfile", profiles[0].Name)
	assert.Equal(t, "Patient", profiles[0].DisplayName)

	_, err = svc.List(ctx, "fhir-r5", "")
	assert.True(t, errors.Is(err, ErrUnknownNamespace))
}

func TestService_Tree(t *testing.T) {
	svc := newTestService()

	view, err := svc.Tree(context.Background(), store.NamespaceFHIRR4, "Patient", fhir.FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, "DomainResource", view.Base)
	assert.Equal(t, "Patient", view.DisplayName)
	assert.Equal(t, 8, view.FieldCount)

	require.Len(t, view.Fields, 4)
	root := view.Fields[0]
	assert.True(t, root.Synthetic)
	assert.Equal(t, "Patient", root.Field.Path)
	assert.Len(t, root.Children, 4, "id, meta, text, extension")

	assert.Equal(t, "Patient.identifier", view.Fields[1].Field.Path)
	assert.Equal(t, "Patient.name", view.Fields[2].Field.Path)
	require.Len(t, view.Fields[2].Children, 1)
	assert.Equal(t, "Patient.name.family", view.Fields[2].Children[0].Field.Path)
}

func TestService_TreeFiltered(t *testing.T) {
	svc := newTestService()

	view, err := svc.Tree(context.Background(), store.NamespaceFHIRR4, "Patient", fhir.FilterOptions{
		HideExtensions: true,
		MaxDepth:       1,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, view.FieldCount)

	fhir.Walk(view.Fields, func(n *fhir.FieldTreeNode, _ int) bool {
		assert.False(t, n.Field.IsExtension, "extension %s should be hidden", n.Field.Path)
		assert.LessOrEqual(t, n.Field.Depth(), 1)
		return true
	})
}

func TestService_TreeDatatype(t *testing.T) {
	svc := newTestService()

	view, err := svc.Tree(context.Background(), store.NamespaceFHIRR4, "Address", fhir.FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Element", view.Base)
	require.Len(t, view.Fields, 2)
	assert.True(t, view.Fields[0].Synthetic)
	assert.Len(t, view.Fields[0].Children, 2)
}

func TestService_Compare(t *testing.T) {
	svc := newTestService()

	cmp, err := svc.Compare(context.Background(), store.NamespaceUSCore, "USCorePatientProfile", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseNamespace, cmp.BaseNamespace)
	assert.Equal(t, "USCorePatientProfile", cmp.Profile)
	assert.Equal(t, "Patient", cmp.Base)
	assert.Equal(t, 3, cmp.Overlap)

	require.Len(t, cmp.AddedFields, 1)
	assert.Equal(t, "Patient.birthDate", cmp.AddedFields[0].Path)
	assert.Len(t, cmp.MustSupportFields, 4)

	require.Len(t, cmp.ModifiedFields, 3)
	gender := cmp.ModifiedFields[2]
	assert.Equal(t, "Patient.gender", gender.Field.Path)
	assert.Equal(t, []fhir.Change{
		{Kind: fhir.ChangeCardinality, Before: "0..1", After: "1..1"},
		{Kind: fhir.ChangeMustSupportAdded, Before: "false", After: "true"},
	}, gender.Changes)
}

func TestService_CompareErrors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Compare(ctx, store.NamespaceFHIRR4, "Patient", "")
	assert.True(t, errors.Is(err, ErrNotProfile))

	_, err = svc.Compare(ctx, store.NamespaceUSCore, "USCorePatientProfile", store.NamespaceUSCore)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = svc.Compare(ctx, store.NamespaceUSCore, "Nope", "")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestService_ReloadAndStats(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Get(ctx, store.NamespaceFHIRR4, "Patient")
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Definitions)
	assert.Equal(t, []string{store.NamespaceFHIRR4, store.NamespaceUSCore}, stats.Namespaces)
	assert.Equal(t, 1, stats.Cache.Size)

	stats, err = svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Cache.Size)
	assert.Equal(t, 4, stats.Definitions)
}
