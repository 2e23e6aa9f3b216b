package results

// Schema fixes the column layout of the files of one sweep.
type Schema struct {
	Dimensions       []string
	IncludeNumRounds bool
}

func (s Schema) SummaryHeader() []string {
	header := []string{"timestamp"}
	header = append(header, s.Dimensions...)
	if s.IncludeNumRounds {
		header = append(header, "num_rounds")
	}
	return append(header, "status", "final_accuracy", "final_loss", "error")
}

func (s Schema) RoundsHeader() []string {
	header := append([]string{}, s.Dimensions...)
	return append(header, "round", "accuracy", "loss")
}

func (s Schema) ClassesHeader() []string {
	header := append([]string{}, s.Dimensions...)
	return append(header, "client_id", "classes", "counts")
}
