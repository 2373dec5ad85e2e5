package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"sort"
	"strconv"

	"mycocore/pkg/domain"
)

// table is the intermediate representation shared by all report kinds. The
// same columns and rows render to both JSON (list of objects) and CSV.
type table struct {
	Columns []string
	Rows    [][]string
}

func (t table) renderJSON() ([]byte, error) {
	objects := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		obj := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				obj[col] = row[i]
			}
		}
		objects = append(objects, obj)
	}
	return json.MarshalIndent(objects, "", "  ")
}

func (t table) renderCSV() ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(t.Columns); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// inventoryStatus reports every lot with its quantity ledger state plus the
// utilisation of tracked instances provisioned from it.
func (w *Worker) inventoryStatus() table {
	lots := w.service.ListLots()
	instances := w.service.ListInstances()

	type usage struct {
		tracked  int
		inUse    int
		disposed int
	}
	byLot := make(map[string]usage)
	for _, inst := range instances {
		u := byLot[inst.LotID]
		u.tracked++
		switch inst.Status {
		case domain.InstanceInUse:
			u.inUse++
		case domain.InstanceDisposed:
			u.disposed++
		}
		byLot[inst.LotID] = u
	}

	sort.Slice(lots, func(i, j int) bool { return lots[i].ID < lots[j].ID })
	t := table{Columns: []string{
		"lot_id", "item_id", "status", "quantity", "original_quantity",
		"in_use_quantity", "disposed_quantity", "reorder_point",
		"instances_tracked", "instances_in_use", "instances_disposed",
	}}
	for _, lot := range lots {
		u := byLot[lot.ID]
		t.Rows = append(t.Rows, []string{
			lot.ID,
			lot.ItemID,
			string(lot.Status),
			formatFloat(lot.Quantity),
			formatFloat(lot.OriginalQuantity),
			formatFloat(lot.InUseQuantity),
			formatFloat(lot.DisposedQuantity),
			formatFloat(lot.ReorderPoint),
			strconv.Itoa(u.tracked),
			strconv.Itoa(u.inUse),
			strconv.Itoa(u.disposed),
		})
	}
	return t
}

// harvestYield summarizes every grow: stage, weights, derived spawn rate,
// and accumulated flush totals.
func (w *Worker) harvestYield() table {
	grows := w.service.ListGrows()
	strainNames := make(map[string]string)
	if store := w.service.Store(); store != nil {
		_ = store.View(w.ctx, func(view domain.TransactionView) error {
			for _, strain := range view.ListStrains() {
				strainNames[strain.ID] = strain.Name
			}
			return nil
		})
	}

	sort.Slice(grows, func(i, j int) bool { return grows[i].ID < grows[j].ID })
	t := table{Columns: []string{
		"grow_id", "strain_id", "strain_name", "stage",
		"substrate_weight_g", "spawn_weight_g", "spawn_rate",
		"flush_count", "total_wet_g", "total_dry_g",
	}}
	for _, grow := range grows {
		var wet, dry float64
		for _, flush := range grow.Flushes {
			wet += flush.WetWeightG
			dry += flush.DryWeightG
		}
		t.Rows = append(t.Rows, []string{
			grow.ID,
			grow.StrainID,
			strainNames[grow.StrainID],
			string(grow.CurrentStage),
			formatFloat(grow.SubstrateWeight),
			formatFloat(grow.SpawnWeight),
			strconv.FormatFloat(grow.SpawnRate(), 'f', 3, 64),
			strconv.Itoa(len(grow.Flushes)),
			formatFloat(wet),
			formatFloat(dry),
		})
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
