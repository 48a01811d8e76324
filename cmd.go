package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nicored/csv-template/csv"
)

type Data struct {
	Config   *csv.Config
	Template *csv.Template

	configFile string
	csvFile    string
	out        io.Writer
}

type flags struct {
	verbose bool
	bom     bool
}

func main() {
	if err := newCommand().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func newCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "csv-template <config.yml> <file.csv>",
		Short: "Parse a csv file through a template and run its operations",
		Long: `Parses the csv file with the columns defined in the configuration file, then
runs the configured operations over the parsed objects. Without operations the
parsed objects are written back to stdout as csv.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}

			d, err := NewData(args[0], args[1])
			if err != nil {
				return err
			}

			d.out = cmd.OutOrStdout()
			if f.bom {
				d.Config.Write.BOM = true
			}

			return d.Do()
		},
	}

	addFlags(cmd.Flags(), f)

	return cmd
}

func addFlags(fs *pflag.FlagSet, f *flags) {
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug messages")
	fs.BoolVar(&f.bom, "bom", false, "prefix the generated csv with a UTF-8 byte order mark")
}

func NewData(configFile string, csvFile string) (data *Data, err error) {
	data = &Data{
		configFile: configFile,
		csvFile:    csvFile,
		out:        os.Stdout,
	}

	if err = data.parseConfig(); err != nil {
		return nil, err
	}

	return
}

func (d *Data) Do() error {
	f, err := os.Open(d.csvFile)
	if err != nil {
		return err
	}
	defer f.Close()

	objects, err := d.Template.ParseFrom(f, d.Config.Read)
	if err != nil {
		return err
	}

	if len(d.Config.Operations) == 0 {
		return d.Template.GenerateTo(d.out, objects, d.Config.Write)
	}

	return csv.RunOperations(d.Template, d.Config.Write, objects, d.Config.Operations)
}

func (d *Data) parseConfig() error {
	conf, err := csv.LoadConfig(d.configFile)
	if err != nil {
		return err
	}

	d.Config = conf

	d.Template, err = conf.Template()
	return err
}
