package handlers

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ruralpay/ledger/internal/models"
)

// renderStatementText writes the statement as an aligned plain-text table
func renderStatementText(w io.Writer, st *models.Statement) error {
	fmt.Fprintf(w, "Account Statement - ID %d\n", st.Account.ID)
	fmt.Fprintf(w, "Name: %s\n", st.Account.Name)
	fmt.Fprintf(w, "Balance: %s\n", st.Account.Balance.StringFixed(2))
	fmt.Fprintf(w, "Status: %s\n\n", st.Account.Status)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tTYPE\tAMOUNT")
	for _, e := range st.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp.Format(time.RFC3339), e.Type, e.Amount.StringFixed(2))
	}
	return tw.Flush()
}
