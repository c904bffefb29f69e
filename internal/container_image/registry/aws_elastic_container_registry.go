package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	ecrhelper "github.com/awslabs/amazon-ecr-credential-helper/ecr-login"
	ecrapi "github.com/awslabs/amazon-ecr-credential-helper/ecr-login/api"
	"github.com/google/go-containerregistry/pkg/authn"
)

type AwsECR struct {
	repositoryURI string
	tag           string
}

// NewAwsECR points at a tag inside the repository the stack declares. repositoryURI is the
// EcrRepositoryUri stack output.
func NewAwsECR(repositoryURI, tag string) *AwsECR {
	return &AwsECR{repositoryURI: repositoryURI, tag: tag}
}

func (r *AwsECR) GetKeychain() authn.Keychain {
	helper := ecrhelper.NewECRHelper(ecrhelper.WithClientFactory(ecrapi.DefaultClientFactory{}))
	return authn.NewKeychainFromHelper(helper)
}

func (r *AwsECR) GetImageRef() (string, error) {
	// Required format: <aws_account_id>.dkr.ecr.<region>.amazonaws.com/<repository>:<tag>
	imageID := fmt.Sprintf("%s:%s", r.repositoryURI, r.tag)
	if r.tag == "" {
		return "", fmt.Errorf("%w - missing tag for AWS ECR image %s", lib.BadUserInputError, r.repositoryURI)
	}

	mainParts := strings.SplitN(r.repositoryURI, "/", 2)
	if len(mainParts) != 2 || mainParts[1] == "" {
		return "", fmt.Errorf("%w - invalid AWS ECR image format: %s", lib.BadUserInputError, imageID)
	}
	slog.Debug("split into main parts", "main_parts", mainParts)

	registryURL := mainParts[0]
	registryUrlParts := strings.Split(registryURL, ".")
	if len(registryUrlParts) != 6 || registryUrlParts[1] != "dkr" || registryUrlParts[2] != "ecr" {
		return "", fmt.Errorf("%w - invalid registry URL: %s", lib.BadUserInputError, registryURL)
	}
	slog.Debug("split into registry parts", "registry_parts", registryUrlParts)

	if strings.ContainsAny(r.tag, ":/@") {
		return "", fmt.Errorf("%w - invalid tag: %s", lib.BadUserInputError, r.tag)
	}

	return imageID, nil
}
