package critical_test

import (
	"fmt"

	"github.com/critlens/critlens/pkg/critical"
	"github.com/critlens/critlens/pkg/trace"
)

func Example() {
	records := []trace.RequestRecord{
		{
			ID: "doc", URL: "https://example.com/", FrameID: "F1",
			ResourceType: trace.ResourceDocument, Priority: trace.PriorityVeryHigh,
			StartTime: 0, Finished: true,
		},
		{
			ID: "css", URL: "https://example.com/main.css", FrameID: "F1",
			ResourceType: trace.ResourceStylesheet, Priority: trace.PriorityHigh,
			Initiator: &trace.Initiator{Kind: trace.InitiatorParser, URL: "https://example.com/"},
			StartTime: 10, Finished: true,
		},
		{
			ID: "hero", URL: "https://example.com/hero.jpg", FrameID: "F1",
			ResourceType: trace.ResourceImage, Priority: trace.PriorityHigh,
			Initiator: &trace.Initiator{Kind: trace.InitiatorParser, URL: "https://example.com/"},
			StartTime: 20, Finished: true,
		},
	}

	forest, err := critical.Assemble(records)
	if err != nil {
		panic(err)
	}

	forest.Walk(func(n *critical.ChainNode, depth int) {
		fmt.Printf("%*s%s\n", depth*2, "", n.Request.URL)
	})
	// Output:
	// https://example.com/
	//   https://example.com/main.css
}
