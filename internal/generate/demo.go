// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"strings"
)

// demoPosts are canned posts for a few topics; other topics get a generic
// post.
var demoPosts = map[string]string{
	"Share a quick tip about AI and machine learning that beginners can understand": "🤖 AI tip for beginners: a model is only as good as its data. Clean, labeled examples beat clever algorithms almost every time. What was your first ML project? #AI #MachineLearning",
	"Quick productivity hack that can save time in daily work":                      "⏰ Productivity tip: if a task takes less than 2 minutes, do it now instead of adding it to your to-do list. Small actions compound into big results! #Productivity",
	"Interesting fact about the history of computing or the internet":               "💡 Did you know? The first computer bug was an actual moth trapped in a Harvard computer in 1947. Grace Hopper's team taped it into the logbook. #TechHistory",
	"Behind-the-scenes insight from the tech industry or startup world":             "🔍 Most successful startups pivot at least once. Twitter started as a podcast platform, Instagram as a check-in app. Great ideas come from unexpected directions! #Startup",
}

// DemoBackend produces canned posts without any network call.
type DemoBackend struct{}

// Name implements Backend.
func (DemoBackend) Name() string { return "demo" }

// Model implements Backend.
func (DemoBackend) Model() string { return "demo" }

// Complete returns the canned post for the topic.
func (DemoBackend) Complete(ctx context.Context, r Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if post, ok := demoPosts[r.Topic]; ok {
		return post, nil
	}
	return fmt.Sprintf("Exploring %s - always fascinating to see how technology evolves! #Tech #Innovation", strings.ToLower(r.Topic)), nil
}
