package version_test

import (
	"fmt"

	"github.com/matzehuels/schemahub/pkg/version"
)

func ExampleOrder() {
	var releases []version.Release
	for _, label := range []string{"v1.1.0", "v1.0.0", "v1.1.0-rc.1"} {
		r, err := version.Parse(label)
		if err != nil {
			continue
		}
		releases = append(releases, r)
	}

	for _, r := range version.Order(releases) {
		fmt.Println(r.Label, "->", r)
	}
	// Output:
	// v1.0.0 -> 1.0.0
	// v1.1.0-rc.1 -> 1.1.0-rc.1
	// v1.1.0 -> 1.1.0
}

func ExampleParse() {
	_, err := version.Parse("release-2024")
	fmt.Println(err)
	// Output:
	// INVALID_VERSION: version was invalid: release-2024
}
