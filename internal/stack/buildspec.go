package stack

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

const buildSpecVersion = "0.2"

type BuildSpecDocument struct {
	Version   string         `yaml:"version"`
	Phases    BuildPhases    `yaml:"phases"`
	Artifacts BuildArtifacts `yaml:"artifacts"`
}

type BuildPhases struct {
	PreBuild  BuildPhase `yaml:"pre_build"`
	Build     BuildPhase `yaml:"build"`
	PostBuild BuildPhase `yaml:"post_build"`
}

type BuildPhase struct {
	Commands []string `yaml:"commands"`
}

type BuildArtifacts struct {
	Files []string `yaml:"files"`
}

// BuildSpec describes the CodeBuild run that builds the image from the docker directory, pushes
// it to the repository held in $ECR_REPO_URI and writes the image definitions file consumed by
// the ECS deploy action.
func BuildSpec(s Settings) BuildSpecDocument {
	dockerDir := path.Clean(s.Build.DockerDir)

	build := make([]string, 0, 4)
	post := []string{`echo "In Post-Build Stage"`}
	if dockerDir != "." {
		build = append(build, "cd "+dockerDir)
		post = append(post, "cd "+backPath(dockerDir))
	}
	build = append(build,
		"docker build -t $ECR_REPO_URI:$TAG .",
		"$(aws ecr get-login --no-include-email)",
		"docker push $ECR_REPO_URI:$TAG",
	)
	post = append(post,
		fmt.Sprintf(`printf '[{"name":"%s","imageUri":"%%s"}]' $ECR_REPO_URI:$TAG > %s`, s.Container.Name, s.Build.ImageDefinitionsFile),
		fmt.Sprintf("pwd; ls -al; cat %s", s.Build.ImageDefinitionsFile),
	)

	return BuildSpecDocument{
		Version: buildSpecVersion,
		Phases: BuildPhases{
			PreBuild: BuildPhase{Commands: []string{
				"env",
				"export TAG=${CODEBUILD_RESOLVED_SOURCE_VERSION}",
			}},
			Build:     BuildPhase{Commands: build},
			PostBuild: BuildPhase{Commands: post},
		},
		Artifacts: BuildArtifacts{Files: []string{s.Build.ImageDefinitionsFile}},
	}
}

// Object converts the document to the untyped form accepted by codebuild.BuildSpec_FromObject.
func (d BuildSpecDocument) Object() map[string]any {
	phase := func(p BuildPhase) map[string]any {
		return map[string]any{"commands": toAnySlice(p.Commands)}
	}

	return map[string]any{
		"version": d.Version,
		"phases": map[string]any{
			"pre_build":  phase(d.Phases.PreBuild),
			"build":      phase(d.Phases.Build),
			"post_build": phase(d.Phases.PostBuild),
		},
		"artifacts": map[string]any{
			"files": toAnySlice(d.Artifacts.Files),
		},
	}
}

func (d BuildSpecDocument) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding build spec: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding build spec: %w", err)
	}
	return buf.Bytes(), nil
}

func backPath(dir string) string {
	depth := len(strings.Split(dir, "/"))
	return strings.TrimSuffix(strings.Repeat("../", depth), "/")
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
