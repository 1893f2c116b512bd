package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	cli "github.com/jawher/mow.cli"
	log "github.com/xlab/suplog"

	"github.com/InjectiveLabs/contract-deployer/deployer"
)

func onHistory(cmd *cli.Cmd) {
	name := cmd.StringArg("NAME", "", "Only list deployments of this contract.")

	cmd.Spec = "[NAME]"

	cmd.Action = func() {
		if len(*recordsFile) == 0 {
			log.Fatalln("records file not set, use --records or DEPLOYER_RECORDS_FILE")
		}

		records, err := deployer.NewRecordStore(*recordsFile).List(*name)
		if err != nil {
			log.Fatalln(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CONTRACT\tADDRESS\tCHAIN\tBLOCK\tGAS USED\tDEPLOYED AT")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				rec.Contract,
				rec.Address,
				rec.ChainID,
				rec.BlockNumber,
				rec.GasUsed,
				rec.Timestamp.Format(time.RFC3339),
			)
		}

		_ = w.Flush()
	}
}
