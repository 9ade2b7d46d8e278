package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/polytrader/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo el resultado de cada ciclo
// a un writer, normalmente stdout.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el output en el modo configurado.
func (c *Console) Notify(_ context.Context, opportunities []domain.Opportunity, positions []domain.Position, summary domain.CycleSummary) error {
	if c.table {
		c.printFull(opportunities, positions, summary)
	} else {
		c.printCompact(opportunities, positions, summary)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(opps []domain.Opportunity, positions []domain.Position, summary domain.CycleSummary) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mkts → %d opps | %d trades | %d pos | pnl $%.2f",
		now, summary.MarketsScanned, summary.OpportunitiesFound,
		summary.TradesExecuted, len(positions), totalPnL(positions))
	if summary.DryRun {
		sb.WriteString(" | DRY RUN")
	}
	if summary.Reason != "" {
		fmt.Fprintf(&sb, " | skipped: %s", summary.Reason)
	}

	shown := 0
	for _, opp := range opps {
		if shown >= 3 {
			break
		}
		fmt.Fprintf(&sb, " | %s %s edge%.0f%%",
			opp.Side(), compactName(opp.Market.Question, 25), opp.Edge*100)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime las tablas de oportunidades y posiciones.
func (c *Console) printFull(opps []domain.Opportunity, positions []domain.Position, summary domain.CycleSummary) {
	now := time.Now().Format("15:04:05")

	mode := ""
	if summary.DryRun {
		mode = " [DRY RUN]"
	}
	fmt.Fprintf(c.out, "\n[%s]%s scanned %d markets — %d opportunities, %d trades\n",
		now, mode, summary.MarketsScanned, summary.OpportunitiesFound, summary.TradesExecuted)
	if summary.Reason != "" {
		fmt.Fprintf(c.out, "  cycle skipped: %s\n", summary.Reason)
	}

	if len(opps) > 0 {
		c.printOpportunities(opps)
	}
	c.printPositions(positions)

	fmt.Fprintf(c.out, "\n  Balance: $%.2f | Bankroll: $%.2f | Deployed: $%.2f\n\n",
		summary.Balance, summary.Bankroll, summary.Deployed)
}

func (c *Console) printOpportunities(opps []domain.Opportunity) {
	fmt.Fprintf(c.out, "\n=== OPPORTUNITIES ===\n")

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Side", "Price", "Fair", "Edge", "Conf", "Reasoning")

	for i, opp := range opps {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(opp.Market.Question, 38),
			string(opp.Side()),
			fmt.Sprintf("%.2f", opp.Price),
			fmt.Sprintf("%.2f", opp.FairValue),
			fmt.Sprintf("%.0f%%", opp.Edge*100),
			string(opp.Confidence),
			truncate(opp.Reasoning, 40),
		)
	}
	table.Render()
}

func (c *Console) printPositions(positions []domain.Position) {
	if len(positions) == 0 {
		fmt.Fprintf(c.out, "\n  No open positions\n")
		return
	}

	fmt.Fprintf(c.out, "\n=== OPEN POSITIONS (%d) ===\n", len(positions))

	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Side", "Entry", "Current", "Size", "PnL", "Opened")

	for _, pos := range positions {
		table.Append(
			truncate(pos.Market, 38),
			string(pos.Side),
			fmt.Sprintf("%.2f", pos.EntryPrice),
			fmt.Sprintf("%.2f", pos.CurrentPrice),
			fmt.Sprintf("$%.2f", pos.Size),
			fmt.Sprintf("%+.2f", pos.UnrealizedPnL),
			pos.OpenedAt.Format("01-02 15:04"),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  Total unrealized PnL: %+.2f\n", totalPnL(positions))
}

// --- helpers ---

func totalPnL(positions []domain.Position) float64 {
	total := 0.0
	for _, p := range positions {
		total += p.UnrealizedPnL
	}
	return total
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
