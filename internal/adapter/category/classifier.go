package category

import (
	"docrag/internal/domain"
	"docrag/internal/port"
)

var _ port.Classifier = (*Classifier)(nil)

// DefaultRules is the category table of the interview knowledge base, grouped
// by top-level directory. Rules are evaluated in order and the first key found
// among the path segments wins, so "basis" resolves to Java basics even though
// system-design also declares it.
var DefaultRules = []domain.CategoryRule{
	// java
	{Key: "basis", Label: "Java Basics"},
	{Key: "collection", Label: "Java Collections"},
	{Key: "concurrent", Label: "Java Concurrency"},
	{Key: "io", Label: "Java IO"},
	{Key: "jvm", Label: "JVM"},
	{Key: "new-features", Label: "Java New Features"},
	// tools
	{Key: "docker", Label: "Docker"},
	{Key: "git", Label: "Git"},
	{Key: "gradle", Label: "Gradle"},
	{Key: "maven", Label: "Maven"},
	// database
	{Key: "sql", Label: "SQL"},
	{Key: "redis", Label: "Redis"},
	{Key: "mysql", Label: "MySQL"},
	{Key: "mongodb", Label: "MongoDB"},
	{Key: "elasticsearch", Label: "Elasticsearch"},
	// cs-basics
	{Key: "algorithms", Label: "Algorithms"},
	{Key: "data-structure", Label: "Data Structures"},
	{Key: "network", Label: "Computer Networks"},
	{Key: "operating-system", Label: "Operating Systems"},
	{Key: "zhuanlan", Label: "Columns"},
	// system-design
	{Key: "system-design", Label: "System Design"},
	{Key: "basis", Label: "System Design Basics"},
	{Key: "framework", Label: "System Design Frameworks"},
	{Key: "security", Label: "System Design Security"},
	{Key: "open-source-project", Label: "Open Source Projects"},
	{Key: "interview-preparation", Label: "Interview Preparation"},
	// high-quality-technical-articles
	{Key: "high-quality-technical-articles", Label: "Technical Articles"},
	{Key: "advanced-programmer", Label: "Advanced Programmer"},
	{Key: "interview", Label: "Interview Experiences"},
	{Key: "personal-experience", Label: "Personal Experience"},
	{Key: "high-performance", Label: "High Performance"},
	{Key: "message-queue", Label: "Message Queues"},
	{Key: "high-availability", Label: "High Availability"},
	{Key: "distributed-system", Label: "Distributed Systems"},
	{Key: "unisound", Label: "Unisound"},
}

// Classifier assigns category labels from an ordered rule table.
type Classifier struct {
	rules  []domain.CategoryRule
	labels []string
}

// NewClassifier copies rules so later changes by the caller do not affect
// classification. An empty table falls back to DefaultRules.
func NewClassifier(rules []domain.CategoryRule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	owned := make([]domain.CategoryRule, len(rules))
	copy(owned, rules)

	seen := make(map[string]bool, len(owned))
	labels := make([]string, 0, len(owned))
	for _, r := range owned {
		if !seen[r.Label] {
			seen[r.Label] = true
			labels = append(labels, r.Label)
		}
	}

	return &Classifier{rules: owned, labels: labels}
}

// Classify returns the label of the first rule whose key is one of segments,
// or domain.UnknownCategory.
func (c *Classifier) Classify(segments []string) string {
	present := make(map[string]struct{}, len(segments))
	for _, s := range segments {
		present[s] = struct{}{}
	}
	for _, r := range c.rules {
		if _, ok := present[r.Key]; ok {
			return r.Label
		}
	}
	return domain.UnknownCategory
}

// Labels returns the distinct labels of the table in declaration order.
func (c *Classifier) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}
