package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/docfold/docstore/pkg/objects"
	objectsBadger "github.com/docfold/docstore/pkg/objects/badger"
	objectsMemory "github.com/docfold/docstore/pkg/objects/memory"
	"github.com/docfold/docstore/pkg/storage"
	"github.com/docfold/docstore/pkg/storage/archive"
	archiveMemory "github.com/docfold/docstore/pkg/storage/archive/memory"
	archiveS3 "github.com/docfold/docstore/pkg/storage/archive/s3"
	"github.com/docfold/docstore/pkg/storage/locks"
)

// CreateBackend constructs the object persistence backend selected by the
// configuration, decoding through the given type registry.
func CreateBackend(cfg *ObjectsConfig, types *objects.TypeRegistry) (objects.Backend, error) {
	switch cfg.Type {
	case "memory":
		return objectsMemory.New(types), nil
	case "badger":
		return createBadgerBackend(cfg.Badger, types)
	default:
		return nil, fmt.Errorf("unknown object backend type: %q", cfg.Type)
	}
}

func createBadgerBackend(options map[string]any, types *objects.TypeRegistry) (objects.Backend, error) {
	type BadgerBackendConfig struct {
		Path     string `mapstructure:"path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	var backendCfg BadgerBackendConfig
	if err := mapstructure.Decode(options, &backendCfg); err != nil {
		return nil, fmt.Errorf("decoding badger backend config: %w", err)
	}

	backend, err := objectsBadger.Open(objectsBadger.Options{
		Path:     backendCfg.Path,
		InMemory: backendCfg.InMemory,
	}, types)
	if err != nil {
		return nil, fmt.Errorf("creating badger backend: %w", err)
	}
	return backend, nil
}

// CreateArchive constructs the deleted-attachment archive selected by the
// configuration. A "none" archive yields nil, which disables archiving.
func CreateArchive(ctx context.Context, cfg *ArchiveConfig) (archive.Archiver, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		return archiveMemory.New(), nil
	case "s3":
		return createS3Archive(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive type: %q", cfg.Type)
	}
}

func createS3Archive(ctx context.Context, options map[string]any) (archive.Archiver, error) {
	type S3ArchiveConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
	}

	var archiveCfg S3ArchiveConfig
	if err := mapstructure.Decode(options, &archiveCfg); err != nil {
		return nil, fmt.Errorf("decoding s3 archive config: %w", err)
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(archiveCfg.Region))

	// Custom endpoint supports S3-compatible stores (MinIO, Localstack).
	if archiveCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint once stable in SDK v2
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck
				return aws.Endpoint{
					URL:               archiveCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(resolver))
	}

	if archiveCfg.AccessKeyID != "" && archiveCfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				archiveCfg.AccessKeyID, archiveCfg.SecretAccessKey, "",
			),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return archiveS3.New(ctx, archiveS3.Config{
		Client:    s3.NewFromConfig(awsCfg),
		Bucket:    archiveCfg.Bucket,
		KeyPrefix: archiveCfg.KeyPrefix,
	})
}

// CreateStoreTools constructs the filesystem store facade with a fresh lock
// registry and the configured archive.
func CreateStoreTools(cfg *StorageConfig, archiver archive.Archiver) (*storage.StoreTools, error) {
	tools, err := storage.NewStoreTools(cfg.Root, locks.NewRegistry(), archiver)
	if err != nil {
		return nil, fmt.Errorf("creating store tools: %w", err)
	}
	return tools, nil
}
