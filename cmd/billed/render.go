package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/zombor/billed/internal/bill"
)

func renderError(w io.Writer, e bill.DisplayableError) {
	fmt.Fprintf(w, "\n[ %s ]\n\n", e.Message)
}

func renderBills(w io.Writer, identity bill.Identity, page bill.Page) {
	fmt.Fprintf(w, "Mes notes de frais (%s)\n\n", identity.Email)

	if page.Error != nil {
		renderError(w, *page.Error)
		return
	}
	if len(page.Rows) == 0 {
		fmt.Fprintln(w, "Aucune note de frais.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tType\tNom\tDate\tMontant\tStatut\tJustificatif")
	for _, row := range page.Rows {
		b := row.Bill
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d €\t%s\t%s\n",
			b.ID, b.Type, b.Name, row.DisplayDate, b.Amount, row.StatusLabel, b.FileName)
	}
	tw.Flush()

	if page.Preview.Open {
		fmt.Fprintf(w, "\nJustificatif: %s\n", page.Preview.FileURL)
	}
}
