package config

import (
	"os"
	"strings"
)

// Profile identifies the execution environment the process runs in.
// It is detected once during Load and injected everywhere via Config.
type Profile string

const (
	// ProfileLambda is the AWS Lambda runtime.
	ProfileLambda Profile = "lambda"

	// ProfileContainer is a non-Lambda container deployment.
	ProfileContainer Profile = "container"

	// ProfileLocal is a developer workstation.
	ProfileLocal Profile = "local"
)

// DetectProfile inspects the process environment and returns the execution
// profile. AWS_LAMBDA_FUNCTION_NAME is set by the Lambda runtime;
// RUNNING_IN_CONTAINER=true marks container deployments.
func DetectProfile() Profile {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return ProfileLambda
	}
	if strings.EqualFold(os.Getenv("RUNNING_IN_CONTAINER"), "true") {
		return ProfileContainer
	}
	return ProfileLocal
}
