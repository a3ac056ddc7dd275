package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration using struct tags plus the few rules
// tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.Objects.Type == "badger" {
		path, _ := cfg.Objects.Badger["path"].(string)
		if path == "" {
			return fmt.Errorf("objects.badger: path is required when objects.type is badger")
		}
	}

	if cfg.Archive.Type == "s3" {
		bucket, _ := cfg.Archive.S3["bucket"].(string)
		if bucket == "" {
			return fmt.Errorf("archive.s3: bucket is required when archive.type is s3")
		}
		region, _ := cfg.Archive.S3["region"].(string)
		if region == "" {
			return fmt.Errorf("archive.s3: region is required when archive.type is s3")
		}
	}

	return nil
}

// formatValidationError converts validator errors into a readable message
// naming the first failing field.
func formatValidationError(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		e := errs[0]
		return fmt.Errorf("%s: validation failed on %q (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
