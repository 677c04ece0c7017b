// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package matrixfmt_test

import (
	"fmt"

	"github.com/aiku/chatmarkup/pkg/component"
	"github.com/aiku/chatmarkup/pkg/render/matrixfmt"
)

func ExampleRender() {
	node := &component.Node{Text: "hello", Decorations: component.Bold}
	node.Append(component.Text(" world"))

	content := matrixfmt.Render(node)
	fmt.Println(content.FormattedBody)
	// Output: <strong>hello</strong> world
}
