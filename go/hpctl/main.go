package main

import (
	"github.com/jessevdk/go-flags"
	mbp "go.gazette.dev/core/mainboilerplate"
)

const iniFilename = "hygiene.ini"

func main() {
	var parser = flags.NewParser(nil, flags.HelpFlag|flags.PassDoubleDash)

	_, _ = parser.AddCommand("extract", "Run a one-shot extraction", `
Run a single extraction for a date directly from the command line,
without serving HTTP. The run resumes from the durable checkpoint and
writes the date manifest on normal termination, exactly as the served
extractor does.
`, &cmdExtract{})

	serve, err := parser.Command.AddCommand("serve", "Serve a pipeline component", "", &struct{}{})
	mbp.Must(err, "failed to add command")

	_, _ = serve.AddCommand("extractor", "Serve the extractor", `
Serve the extractor with the provided configuration, until signaled to
exit (via SIGTERM) or asked to via its /shutdown API. An active run
finishes its current chunk before the service stops.
`, &cmdServeExtractor{})

	_, _ = serve.AddCommand("trigger", "Serve the trigger", `
Serve the trigger with the provided configuration, until signaled to
exit (via SIGTERM).
`, &cmdServeTrigger{})

	mbp.AddPrintConfigCmd(parser, iniFilename)
	mbp.MustParseConfig(parser, iniFilename)
}
