package console

import (
	"context"
	"fmt"
	"io"

	"github.com/round-cube/parking-system/parking"
	log "github.com/sirupsen/logrus"
)

type Workflow interface {
	ProcessIncomingVehicle(ctx context.Context) (*parking.Ticket, error)
	ProcessExitingVehicle(ctx context.Context) (*parking.Ticket, error)
}

// Shell is the interactive menu of a parking terminal.
type Shell struct {
	reader   *Reader
	out      io.Writer
	workflow Workflow
}

func NewShell(reader *Reader, out io.Writer, workflow Workflow) *Shell {
	return &Shell{reader: reader, out: out, workflow: workflow}
}

// Prompter prints each question to out before reading the answer.
type Prompter struct {
	reader *Reader
	out    io.Writer
}

var _ parking.InputReader = (*Prompter)(nil)

func NewPrompter(reader *Reader, out io.Writer) *Prompter {
	return &Prompter{reader: reader, out: out}
}

func (p *Prompter) ReadSelection() int {
	fmt.Fprintln(p.out, "Please select vehicle type from menu")
	fmt.Fprintln(p.out, "1 CAR")
	fmt.Fprintln(p.out, "2 BIKE")
	return p.reader.ReadSelection()
}

func (p *Prompter) ReadVehicleRegistrationNumber() (string, error) {
	fmt.Fprintln(p.out, "Please type the vehicle registration number and press enter key")
	return p.reader.ReadVehicleRegistrationNumber()
}

// Run loops over the menu until the user exits or input ends.
func (s *Shell) Run(ctx context.Context) {
	fmt.Fprintln(s.out, "Welcome to Parking System!")
	for ctx.Err() == nil {
		s.printMenu()
		switch s.reader.ReadSelection() {
		case 1:
			s.incoming(ctx)
		case 2:
			s.exiting(ctx)
		case 3:
			fmt.Fprintln(s.out, "Exiting from the system!")
			return
		default:
			if s.reader.Done() {
				return
			}
			fmt.Fprintln(s.out, "Unsupported option. Please enter a number corresponding to the provided menu")
		}
	}
}

func (s *Shell) printMenu() {
	fmt.Fprintln(s.out, "Please select an option. Simply enter the number to choose an action")
	fmt.Fprintln(s.out, "1 New Vehicle Entering - Allocate Parking Space")
	fmt.Fprintln(s.out, "2 Vehicle Exiting - Generate Ticket Price")
	fmt.Fprintln(s.out, "3 Shutdown System")
}

func (s *Shell) incoming(ctx context.Context) {
	ticket, err := s.workflow.ProcessIncomingVehicle(ctx)
	if err != nil {
		log.Errorf("unable to process incoming vehicle: %s", err)
		fmt.Fprintln(s.out, "Unable to process incoming vehicle")
		return
	}
	if ticket == nil {
		fmt.Fprintln(s.out, "No parking slot available for this vehicle type")
		return
	}
	fmt.Fprintln(s.out, "Generated Ticket and saved in DB")
	fmt.Fprintf(s.out, "Please park your vehicle in spot number: %d\n", ticket.ParkingSpot.ID)
	fmt.Fprintf(s.out, "Recorded in-time for vehicle number: %s is: %s\n",
		ticket.VehicleRegNumber, ticket.InTime.Format("2006-01-02 15:04:05"))
}

func (s *Shell) exiting(ctx context.Context) {
	ticket, err := s.workflow.ProcessExitingVehicle(ctx)
	if err != nil {
		log.Errorf("unable to process exiting vehicle: %s", err)
		fmt.Fprintln(s.out, "Unable to update ticket information. Error occurred")
		return
	}
	fmt.Fprintf(s.out, "Please pay the parking fare: %.2f\n", ticket.Price)
	fmt.Fprintf(s.out, "Recorded out-time for vehicle number: %s is: %s\n",
		ticket.VehicleRegNumber, ticket.OutTime.Format("2006-01-02 15:04:05"))
}
