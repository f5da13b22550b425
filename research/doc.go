// Package research implements the autonomous research workflow: a planner
// breaks a topic into search queries, a researcher searches, scrapes and
// summarizes each query in turn, and a writer synthesizes a Markdown report
// from the summaries.
//
// The workflow is a graph.StateGraph over State and the sealed Delta union.
// Each node returns only its own delta type and Merge enforces who may change
// what: the planner sets the plan, each researcher step appends exactly one
// summary and advances the cursor by one, and the writer sets the report once.
//
// Search and extraction failures are tolerated per item and only reduce the
// material available to the summarizer; a query with no usable source gets a
// placeholder summary. Model failures stop the run with a *NodeError.
//
// Basic use:
//
//	engine, err := research.NewEngine(model, search.NewDuckDuckGo(), extract.NewReadability())
//	if err != nil {
//		return err
//	}
//	for ev, err := range engine.Stream(ctx, "solar panel efficiency 2024") {
//		if err != nil {
//			return err
//		}
//		if d, ok := ev.Delta.(research.ReportDelta); ok {
//			fmt.Println(d.FinalReport)
//		}
//	}
package research
