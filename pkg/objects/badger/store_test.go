package badger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docfold/docstore/pkg/objects"
	"github.com/docfold/docstore/pkg/objects/badger"
	objectstesting "github.com/docfold/docstore/pkg/objects/testing"
)

func TestBackendContract(t *testing.T) {
	suite := &objectstesting.BackendSuite{
		NewBackend: func(t *testing.T, types *objects.TypeRegistry) objects.Backend {
			backend, err := badger.Open(badger.Options{InMemory: true}, types)
			require.NoError(t, err)
			return backend
		},
	}
	suite.Run(t)
}

func TestOpenOnDisk(t *testing.T) {
	backend, err := badger.Open(badger.Options{Path: t.TempDir()}, objectstesting.NewTypes())
	require.NoError(t, err)
	require.NoError(t, backend.Close())
}

func TestOpenRequiresPathOrInMemory(t *testing.T) {
	_, err := badger.Open(badger.Options{}, objectstesting.NewTypes())
	require.Error(t, err)
}

func TestOpenRequiresTypeRegistry(t *testing.T) {
	_, err := badger.Open(badger.Options{InMemory: true}, nil)
	require.Error(t, err)
}
