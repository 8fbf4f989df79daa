// internal/stages/output/publish-results/config.go
package publishresults

import "mentor-matcher/internal/common/config"

type Config struct {
	Bucket     string
	Prefix     string
	FromEmail  string
	Recipients []string
}

func LoadConfig(app *config.Config) *Config {
	aws := app.Integrations.AWS
	return &Config{
		Bucket:     aws.S3.Bucket,
		Prefix:     aws.S3.Prefix,
		FromEmail:  aws.SES.FromEmail,
		Recipients: aws.SES.Recipients,
	}
}

// UploadEnabled reports whether an S3 bucket is configured.
func (c *Config) UploadEnabled() bool { return c.Bucket != "" }

// NotifyEnabled reports whether a sender and at least one recipient are configured.
func (c *Config) NotifyEnabled() bool { return c.FromEmail != "" && len(c.Recipients) > 0 }
