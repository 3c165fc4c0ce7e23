// Package metrics exposes the pipeline's Prometheus counters. Everything
// is registered on the default registry and served by the operator API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CrawlRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_crawl_runs_total",
		Help: "Crawl runs per source, by outcome.",
	}, []string{"source", "outcome"})

	ArticlesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_articles_collected_total",
		Help: "Articles persisted by the crawler.",
	})

	ItemsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_items_skipped_total",
		Help: "Sitemap items skipped, by reason.",
	}, []string{"reason"})

	SummariesTransitioned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_summaries_transitioned_total",
		Help: "Summary state transitions, by target state.",
	}, []string{"state"})

	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_pipeline_runs_total",
		Help: "Scheduler cycles, by pipeline and outcome.",
	}, []string{"pipeline", "outcome"})

	GroupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_groups_created_total",
		Help: "Similarity groups created.",
	})

	GroupRefsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_group_refs_added_total",
		Help: "References added to similarity groups.",
	})
)
