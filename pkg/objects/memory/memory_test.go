package memory_test

import (
	"testing"

	"github.com/docfold/docstore/pkg/objects"
	"github.com/docfold/docstore/pkg/objects/memory"
	objectstesting "github.com/docfold/docstore/pkg/objects/testing"
)

func TestBackendContract(t *testing.T) {
	suite := &objectstesting.BackendSuite{
		NewBackend: func(t *testing.T, types *objects.TypeRegistry) objects.Backend {
			return memory.New(types)
		},
	}
	suite.Run(t)
}
