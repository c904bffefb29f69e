package stack

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/cxapi"
	"github.com/aws/jsii-runtime-go"
)

// NewApp creates the CDK app. An empty outdir lets the CDK CLI pick it through CDK_OUTDIR.
func NewApp(outdir string) awscdk.App {
	props := &awscdk.AppProps{}
	if outdir != "" {
		props.Outdir = jsii.String(outdir)
	}
	return awscdk.NewApp(props)
}

// Synth writes the cloud assembly and returns the directory it went to.
func Synth(app awscdk.App) (string, error) {
	var assembly cxapi.CloudAssembly
	if err := catchJsii(func() { assembly = app.Synth(nil) }); err != nil {
		return "", fmt.Errorf("synthesizing cloud assembly: %w", err)
	}
	return *assembly.Directory(), nil
}

// Close stops the jsii runtime child process.
func Close() {
	jsii.Close()
}

// catchJsii turns the panics the jsii runtime raises for construct errors into errors.
func catchJsii(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	fn()
	return nil
}
