// Package render imprime el feed visible en la terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

// Console escribe el subconjunto visible a stdout, en modo compacto
// (1 línea por tick) o tabla completa.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea una consola que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea una consola para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Print imprime los eventos visibles. exhausted/stalled se muestran como un
// indicador neutro de final de historia — nunca como pantalla de error.
func (c *Console) Print(events []domain.SignalEvent, exhausted, stalled bool) {
	if c.table {
		c.printTable(events)
	} else {
		c.printCompact(events)
	}

	if stalled || exhausted {
		fmt.Fprintln(c.out, "  — no more history available —")
	}
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(events []domain.SignalEvent) {
	now := time.Now().Format("15:04:05")
	trades, transfers, resolutions := countByKind(events)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d events → trades:%d transfers:%d resolved:%d",
		now, len(events), trades, transfers, resolutions)

	shown := 0
	for _, e := range events {
		if shown >= 3 || e.Kind != domain.KindWhaleTrade {
			continue
		}
		fmt.Fprintf(&sb, " | %s %s $%.0f@%.2f",
			e.Trade.Side,
			compactName(e.Trade.MarketTitle, e.Trade.MarketSlug, 22),
			e.Trade.SizeUSD,
			e.Trade.Price,
		)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printTable imprime la tabla completa del feed.
func (c *Console) printTable(events []domain.SignalEvent) {
	fmt.Fprintf(c.out, "\n[%s] %d visible events\n", time.Now().Format("15:04:05"), len(events))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Time", "Kind", "Detail", "Size $", "Conf", "Enrich")

	for i, e := range events {
		table.Append(
			fmt.Sprintf("%d", i+1),
			e.DetectedAt.Format("15:04:05"),
			e.Kind.String(),
			eventDetail(e),
			fmt.Sprintf("%.0f", e.SizeUSD()),
			fmt.Sprintf("%.2f", e.Confidence),
			string(e.EnrichmentStatus),
		)
	}

	table.Render()
}

// eventDetail resume el payload del evento en una celda.
func eventDetail(e domain.SignalEvent) string {
	switch e.Kind {
	case domain.KindWhaleTrade:
		if e.Trade == nil {
			return ""
		}
		return fmt.Sprintf("%s %s %s @%.2f",
			shortWallet(e.Trade.Wallet), e.Trade.Side,
			compactName(e.Trade.MarketTitle, e.Trade.MarketSlug, 30), e.Trade.Price)
	case domain.KindWalletTransfer:
		if e.Transfer == nil {
			return ""
		}
		return fmt.Sprintf("%s %s", shortWallet(e.Transfer.Wallet), e.Transfer.Direction)
	case domain.KindMarketResolved:
		if e.Resolved == nil {
			return ""
		}
		return fmt.Sprintf("%s → %s",
			compactName(e.Resolved.MarketTitle, e.Resolved.MarketSlug, 30), e.Resolved.Outcome)
	}
	return ""
}

// compactName trunca el título (o el slug como fallback) a maxLen caracteres.
func compactName(title, slug string, maxLen int) string {
	name := title
	if name == "" {
		name = slug
	}
	if len(name) > maxLen {
		name = name[:maxLen-3] + "..."
	}
	return name
}

// shortWallet abrevia una dirección 0x... a sus primeros 8 caracteres.
func shortWallet(w string) string {
	if len(w) > 10 {
		return w[:10] + "…"
	}
	return w
}

func countByKind(events []domain.SignalEvent) (trades, transfers, resolutions int) {
	for _, e := range events {
		switch e.Kind {
		case domain.KindWhaleTrade:
			trades++
		case domain.KindWalletTransfer:
			transfers++
		case domain.KindMarketResolved:
			resolutions++
		}
	}
	return
}
