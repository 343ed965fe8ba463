package cli

import "github.com/xlkit/xlkit/internal/app"

// AllCommands returns every registered subcommand, constructed fresh per Run so each gets its own flag set.
func AllCommands(a *app.App) []*Command {
	return []*Command{
		newListSheetsCommand(a),
		newSheetOverviewCommand(a),
		newRangeValuesCommand(a),
		newReadTableCommand(a),
		newFindValueCommand(a),
		newFormulaMapCommand(a),
		newFormulaTraceCommand(a),
		newDescribeCommand(a, "describe"),
		newDescribeCommand(a, "table-profile"),
		newCopyCommand(a),
		newEditCommand(a),
		newRecalculateCommand(a),
		newDiffCommand(a),
	}
}
