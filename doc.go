// Deepresearch turns a research topic into a Markdown report.
//
// A run is a small workflow graph. A Planner asks the model for up to three
// search queries. A Researcher handles one query per step: it searches the
// web, scrapes each result into plain text and asks the model for a
// fact-heavy summary. A Loop Controller sends the run back to the Researcher
// until every query has a summary, after which a Writer composes the final
// report from the summaries alone.
//
// # Quick Start
//
//	go install github.com/smallnest/deepresearch/cmd/deepresearch@latest
//	export GOOGLE_API_KEY=...
//	deepresearch run "solar panel efficiency 2024"
//
// The report is written to final_report.md. Add --html report.html for a
// styled standalone page.
//
// # Embedding
//
//	engine, err := research.NewEngine(model, search.NewDuckDuckGo(), extract.NewReadability())
//	if err != nil {
//		return err
//	}
//	for ev, err := range engine.Stream(ctx, "solar panel efficiency 2024") {
//		if err != nil {
//			return err
//		}
//		fmt.Println(ev.Node, ev.Phase)
//	}
//
// Engine.Run returns only the final state.
//
// # Packages
//
//   - graph: typed state graph with reducers, conditional edges and streaming
//   - research: planner, researcher, loop controller, writer and the engine
//   - llm: model clients for langchaingo, go-openai and Google GenAI
//   - search: DuckDuckGo, Brave and Tavily web search
//   - extract: readable text extraction from web pages
//   - report: Markdown to sanitized HTML
//   - store: archive of finished reports (memory, sqlite, postgres, redis)
//   - server: HTTP API with server-sent progress events and metrics
//   - progress: terminal narration of a run
//   - config, log: configuration and logging
package deepresearch
