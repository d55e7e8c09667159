package app

import (
	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/internal/auth"
	"github.com/homecare-coop/backoffice/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Session
	r.HandleFunc("/api/auth/login", deps.UserHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", deps.UserHandler.Logout).Methods("POST")
	r.HandleFunc("/api/auth/user", authenticated(deps.UserHandler.CurrentUser)).Methods("GET")

	// Users
	r.HandleFunc("/api/users", authorize(auth.Users, auth.Read, deps.UserHandler.ListUsers)).Methods("GET")
	r.HandleFunc("/api/users", authorize(auth.Users, auth.Create, deps.UserHandler.CreateUser)).Methods("POST")
	r.HandleFunc("/api/users/{userId}", authorize(auth.Users, auth.Update, deps.UserHandler.UpdateUser)).Methods("PUT")
	r.HandleFunc("/api/users/{userId}", authorize(auth.Users, auth.Delete, deps.UserHandler.DeleteUser)).Methods("DELETE")

	// Clients
	r.HandleFunc("/api/clients", authorize(auth.Clients, auth.Read, deps.ClientHandler.ListClients)).Methods("GET")
	r.HandleFunc("/api/clients", authorize(auth.Clients, auth.Create, deps.ClientHandler.CreateClient)).Methods("POST")
	r.HandleFunc("/api/clients/{clientId}", authorize(auth.Clients, auth.Read, deps.ClientHandler.GetClient)).Methods("GET")
	r.HandleFunc("/api/clients/{clientId}", authorize(auth.Clients, auth.Update, deps.ClientHandler.UpdateClient)).Methods("PUT")
	r.HandleFunc("/api/clients/{clientId}", authorize(auth.Clients, auth.Delete, deps.ClientHandler.DeleteClient)).Methods("DELETE")
	r.HandleFunc("/api/clients/{clientId}/budget-availability", authorize(auth.BudgetAllocations, auth.Read, deps.BudgetHandler.CheckAvailability)).Methods("GET")

	// Staff and rates
	r.HandleFunc("/api/staff", authorize(auth.Staff, auth.Read, deps.StaffHandler.ListStaff)).Methods("GET")
	r.HandleFunc("/api/staff", authorize(auth.Staff, auth.Create, deps.StaffHandler.CreateStaff)).Methods("POST")
	r.HandleFunc("/api/staff/{staffId}", authorize(auth.Staff, auth.Read, deps.StaffHandler.GetStaff)).Methods("GET")
	r.HandleFunc("/api/staff/{staffId}", authorize(auth.Staff, auth.Update, deps.StaffHandler.UpdateStaff)).Methods("PUT")
	r.HandleFunc("/api/staff/{staffId}", authorize(auth.Staff, auth.Delete, deps.StaffHandler.DeleteStaff)).Methods("DELETE")
	r.HandleFunc("/api/staff/{staffId}/rates", authorize(auth.StaffRates, auth.Read, deps.StaffHandler.ListRates)).Methods("GET")
	r.HandleFunc("/api/staff/{staffId}/rates", authorize(auth.StaffRates, auth.Create, deps.StaffHandler.CreateRate)).Methods("POST")
	r.HandleFunc("/api/staff/{staffId}/rates/{rateId}", authorize(auth.StaffRates, auth.Update, deps.StaffHandler.UpdateRate)).Methods("PUT")
	r.HandleFunc("/api/staff/{staffId}/rates/{rateId}", authorize(auth.StaffRates, auth.Delete, deps.StaffHandler.DeleteRate)).Methods("DELETE")

	// Time logs
	r.HandleFunc("/api/time-logs", authorize(auth.TimeLogs, auth.Read, deps.TimeLogHandler.ListTimeLogs)).Methods("GET")
	r.HandleFunc("/api/time-logs", authorize(auth.TimeLogs, auth.Create, deps.TimeLogHandler.CreateTimeLog)).Methods("POST")
	r.HandleFunc("/api/time-logs/{timeLogId}", authorize(auth.TimeLogs, auth.Read, deps.TimeLogHandler.GetTimeLog)).Methods("GET")
	r.HandleFunc("/api/time-logs/{timeLogId}", authorize(auth.TimeLogs, auth.Update, deps.TimeLogHandler.UpdateTimeLog)).Methods("PUT")
	r.HandleFunc("/api/time-logs/{timeLogId}", authorize(auth.TimeLogs, auth.Delete, deps.TimeLogHandler.DeleteTimeLog)).Methods("DELETE")

	// Budgets
	r.HandleFunc("/api/budget-types", authorize(auth.BudgetAllocations, auth.Read, deps.BudgetHandler.ListTypes)).Methods("GET")
	r.HandleFunc("/api/budget-allocations", authorize(auth.BudgetAllocations, auth.Read, deps.BudgetHandler.ListAllocations)).Methods("GET")
	r.HandleFunc("/api/budget-allocations", authorize(auth.BudgetAllocations, auth.Create, deps.BudgetHandler.CreateAllocation)).Methods("POST")
	r.HandleFunc("/api/budget-allocations/{allocationId}", authorize(auth.BudgetAllocations, auth.Read, deps.BudgetHandler.GetAllocation)).Methods("GET")
	r.HandleFunc("/api/budget-allocations/{allocationId}", authorize(auth.BudgetAllocations, auth.Update, deps.BudgetHandler.UpdateAllocation)).Methods("PUT")
	r.HandleFunc("/api/budget-allocations/{allocationId}", authorize(auth.BudgetAllocations, auth.Delete, deps.BudgetHandler.DeleteAllocation)).Methods("DELETE")

	// Compensations
	r.HandleFunc("/api/compensations/calculate", authorize(auth.Compensations, auth.Read, deps.CompensationHandler.CalculateCompensations)).Methods("POST")
	r.HandleFunc("/api/compensations", authorize(auth.Compensations, auth.Read, deps.CompensationHandler.ListCompensations)).Methods("GET")
	r.HandleFunc("/api/compensations", authorize(auth.Compensations, auth.Create, deps.CompensationHandler.CreateCompensation)).Methods("POST")
	r.HandleFunc("/api/compensations/{compensationId}", authorize(auth.Compensations, auth.Read, deps.CompensationHandler.GetCompensation)).Methods("GET")
	r.HandleFunc("/api/compensations/{compensationId}", authorize(auth.Compensations, auth.Delete, deps.CompensationHandler.DeleteCompensation)).Methods("DELETE")
	r.HandleFunc("/api/compensations/{compensationId}/pay", authorize(auth.Compensations, auth.Update, deps.CompensationHandler.MarkPaid)).Methods("POST")

	// Budget allocation of compensations
	r.HandleFunc("/api/compensations/{compensationId}/availability", authorize(auth.Compensations, auth.Read, deps.AllocationHandler.GetAvailability)).Methods("GET")
	r.HandleFunc("/api/compensations/{compensationId}/allocate", authorize(auth.Compensations, auth.Create, deps.AllocationHandler.Approve)).Methods("POST")
	r.HandleFunc("/api/compensations/{compensationId}/allocations", authorize(auth.Compensations, auth.Read, deps.AllocationHandler.ListAllocations)).Methods("GET")
	r.HandleFunc("/api/compensations/{compensationId}/client-debts", authorize(auth.Compensations, auth.Read, deps.AllocationHandler.ListClientDebts)).Methods("GET")

	// Data imports
	r.HandleFunc("/api/data/imports", authorize(auth.DataImports, auth.Read, deps.DataImportHandler.ListImports)).Methods("GET")
	r.HandleFunc("/api/data/imports", authorize(auth.DataImports, auth.Create, deps.DataImportHandler.Upload)).Methods("POST")
	r.HandleFunc("/api/data/imports/{importId}", authorize(auth.DataImports, auth.Read, deps.DataImportHandler.GetImport)).Methods("GET")
	r.HandleFunc("/api/data/imports/{importId}", authorize(auth.DataImports, auth.Delete, deps.DataImportHandler.DeleteImport)).Methods("DELETE")
	r.HandleFunc("/api/data/imports/{importId}/rows", authorize(auth.DataImports, auth.Read, deps.DataImportHandler.ListRows)).Methods("GET")
	r.HandleFunc("/api/data/imports/{importId}/resolution", authorize(auth.DataImports, auth.Read, deps.ResolutionHandler.Preview)).Methods("GET")
	r.HandleFunc("/api/data/imports/{importId}/sync", authorize(auth.DataImports, auth.Update, deps.ResolutionHandler.Sync)).Methods("POST")

	// Integrity
	r.HandleFunc("/api/integrity/reports", authorize(auth.Integrity, auth.Read, deps.IntegrityHandler.GetReports)).Methods("GET")
	r.HandleFunc("/api/integrity/reports/csv", authorize(auth.Integrity, auth.Read, deps.IntegrityHandler.GetReportsCsv)).Methods("GET")
	r.HandleFunc("/api/integrity/imports", authorize(auth.Integrity, auth.Read, deps.IntegrityHandler.GetImportTable)).Methods("GET")

	// Stats
	r.HandleFunc("/api/stats/dashboard", authorize(auth.Statistics, auth.Read, deps.StatsHandler.GetDashboard)).Methods("GET")
	r.HandleFunc("/api/stats/monthly", authorize(auth.Statistics, auth.Read, deps.StatsHandler.GetMonthlyStats)).Methods("GET")

	// Appointments
	r.HandleFunc("/api/appointments", authorize(auth.Appointments, auth.Read, deps.AppointmentHandler.ListAppointments)).Methods("GET")
	r.HandleFunc("/api/appointments", authorize(auth.Appointments, auth.Create, deps.AppointmentHandler.CreateAppointment)).Methods("POST")
	r.HandleFunc("/api/appointments/{appointmentId}", authorize(auth.Appointments, auth.Read, deps.AppointmentHandler.GetAppointment)).Methods("GET")
	r.HandleFunc("/api/appointments/{appointmentId}", authorize(auth.Appointments, auth.Update, deps.AppointmentHandler.UpdateAppointment)).Methods("PUT")
	r.HandleFunc("/api/appointments/{appointmentId}", authorize(auth.Appointments, auth.Delete, deps.AppointmentHandler.DeleteAppointment)).Methods("DELETE")

	// Client and staff assignments
	r.HandleFunc("/api/assignments", authorize(auth.Assignments, auth.Read, deps.AssignmentHandler.ListAssignments)).Methods("GET")
	r.HandleFunc("/api/assignments", authorize(auth.Assignments, auth.Create, deps.AssignmentHandler.CreateAssignment)).Methods("POST")
	r.HandleFunc("/api/assignments/{assignmentId}", authorize(auth.Assignments, auth.Read, deps.AssignmentHandler.GetAssignment)).Methods("GET")
	r.HandleFunc("/api/assignments/{assignmentId}", authorize(auth.Assignments, auth.Update, deps.AssignmentHandler.UpdateAssignment)).Methods("PUT")
	r.HandleFunc("/api/assignments/{assignmentId}", authorize(auth.Assignments, auth.Delete, deps.AssignmentHandler.DeleteAssignment)).Methods("DELETE")
	r.HandleFunc("/api/clients/{clientId}/assignments", authorize(auth.Assignments, auth.Read, deps.AssignmentHandler.ListClientAssignments)).Methods("GET")
	r.HandleFunc("/api/staff/{staffId}/assignments", authorize(auth.Assignments, auth.Read, deps.AssignmentHandler.ListStaffAssignments)).Methods("GET")
}
