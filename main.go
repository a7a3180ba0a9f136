package main

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"olympiad-api/controllers"
	"olympiad-api/driver"
	"olympiad-api/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, relying on environment")
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	if os.Getenv("SECRET") == "" {
		log.Fatal("SECRET variable is not set")
	}
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN variable is not set")
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := driver.RunMigrations(dsn, migrationsPath); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	db, err := driver.ConnectDB(dsn)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	sisClient := services.NewSISClient(
		os.Getenv("SIS_API_URL"),
		os.Getenv("SIS_USERNAME"),
		os.Getenv("SIS_PASSWORD"))

	authController := controllers.AuthController{}
	userController := controllers.UserController{}
	studentController := controllers.StudentController{}
	branchController := controllers.BranchController{}
	gradeController := controllers.GradeController{}
	classController := controllers.ClassController{}
	schoolYearController := controllers.SchoolYearController{}
	medalTierController := controllers.MedalTierController{}
	olympiadController := controllers.OlympiadController{}
	enrollmentController := controllers.EnrollmentController{}
	resultController := controllers.ResultController{}
	syncController := controllers.SyncController{Client: sisClient}
	locationController := controllers.CatalogController{Table: "application_locations", Column: "name"}
	paymentController := controllers.CatalogController{Table: "payment_types", Column: "description"}
	correctionController := controllers.CatalogController{Table: "correction_types", Column: "description"}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", authController.Login(db)).Methods("POST")
	api.HandleFunc("/auth/register", authController.Register(db)).Methods("POST")
	api.HandleFunc("/auth/me", authController.GetMe(db)).Methods("GET")
	api.HandleFunc("/auth/logout", authController.Logout(db)).Methods("POST")

	api.HandleFunc("/usuarios", userController.GetUsers(db)).Methods("GET")
	api.HandleFunc("/usuarios/{id}", userController.GetUser(db)).Methods("GET")
	api.HandleFunc("/usuarios/{id}", userController.UpdateUser(db)).Methods("PUT")
	api.HandleFunc("/usuarios/{id}", userController.DeleteUser(db)).Methods("DELETE")

	api.HandleFunc("/alunos", studentController.GetStudents(db)).Methods("GET")
	api.HandleFunc("/alunos", studentController.CreateStudent(db)).Methods("POST")
	api.HandleFunc("/alunos/{id}", studentController.GetStudent(db)).Methods("GET")
	api.HandleFunc("/alunos/{id}", studentController.UpdateStudent(db)).Methods("PUT")
	api.HandleFunc("/alunos/{id}", studentController.DeleteStudent(db)).Methods("DELETE")

	api.HandleFunc("/filiais", branchController.GetBranches(db)).Methods("GET")
	api.HandleFunc("/filiais", branchController.CreateBranch(db)).Methods("POST")
	api.HandleFunc("/filiais/{id}", branchController.UpdateBranch(db)).Methods("PUT")
	api.HandleFunc("/filiais/{id}", branchController.DeleteBranch(db)).Methods("DELETE")

	api.HandleFunc("/series", gradeController.GetGrades(db)).Methods("GET")
	api.HandleFunc("/series", gradeController.CreateGrade(db)).Methods("POST")
	api.HandleFunc("/series/{id}", gradeController.DeleteGrade(db)).Methods("DELETE")

	api.HandleFunc("/turmas", classController.GetClasses(db)).Methods("GET")
	api.HandleFunc("/turmas", classController.CreateClass(db)).Methods("POST")
	api.HandleFunc("/turmas/{id}", classController.DeleteClass(db)).Methods("DELETE")

	api.HandleFunc("/anos-letivos", schoolYearController.GetSchoolYears(db)).Methods("GET")
	api.HandleFunc("/anos-letivos", schoolYearController.CreateSchoolYear(db)).Methods("POST")
	api.HandleFunc("/anos-letivos/{id}", schoolYearController.UpdateSchoolYear(db)).Methods("PUT")

	api.HandleFunc("/tipos-medalha", medalTierController.GetMedalTiers(db)).Methods("GET")
	api.HandleFunc("/tipos-medalha", medalTierController.CreateMedalTier(db)).Methods("POST")

	api.HandleFunc("/locais-aplicacao", locationController.List(db)).Methods("GET")
	api.HandleFunc("/locais-aplicacao", locationController.Create(db)).Methods("POST")
	api.HandleFunc("/locais-aplicacao/{id}", locationController.Update(db)).Methods("PUT")
	api.HandleFunc("/locais-aplicacao/{id}", locationController.Delete(db)).Methods("DELETE")

	api.HandleFunc("/tipos-pagamento", paymentController.List(db)).Methods("GET")
	api.HandleFunc("/tipos-pagamento", paymentController.Create(db)).Methods("POST")
	api.HandleFunc("/tipos-pagamento/{id}", paymentController.Update(db)).Methods("PUT")
	api.HandleFunc("/tipos-pagamento/{id}", paymentController.Delete(db)).Methods("DELETE")

	api.HandleFunc("/tipos-correcao", correctionController.List(db)).Methods("GET")
	api.HandleFunc("/tipos-correcao", correctionController.Create(db)).Methods("POST")
	api.HandleFunc("/tipos-correcao/{id}", correctionController.Update(db)).Methods("PUT")
	api.HandleFunc("/tipos-correcao/{id}", correctionController.Delete(db)).Methods("DELETE")

	api.HandleFunc("/olimpiadas", olympiadController.GetOlympiads(db)).Methods("GET")
	api.HandleFunc("/olimpiadas", olympiadController.CreateOlympiad(db)).Methods("POST")
	api.HandleFunc("/olimpiadas/{id}", olympiadController.GetOlympiad(db)).Methods("GET")
	api.HandleFunc("/olimpiadas/{id}", olympiadController.UpdateOlympiad(db)).Methods("PUT")
	api.HandleFunc("/olimpiadas/{id}", olympiadController.DeleteOlympiad(db)).Methods("DELETE")
	api.HandleFunc("/olimpiadas/{id}/inscricoes/resumo", olympiadController.GetEnrollmentSummary(db)).Methods("GET")

	api.HandleFunc("/inscricoes", enrollmentController.GetEnrollments(db)).Methods("GET")
	api.HandleFunc("/inscricoes", enrollmentController.CreateEnrollment(db)).Methods("POST")
	api.HandleFunc("/inscricoes/lote", enrollmentController.CreateBatch(db)).Methods("POST")
	api.HandleFunc("/inscricoes/lote", enrollmentController.DeleteBatch(db)).Methods("DELETE")
	api.HandleFunc("/inscricoes/{id}", enrollmentController.GetEnrollment(db)).Methods("GET")
	api.HandleFunc("/inscricoes/{id}", enrollmentController.CancelEnrollment(db)).Methods("DELETE")
	api.HandleFunc("/inscricoes/{id}/status", enrollmentController.UpdateStatus(db)).Methods("PUT")

	api.HandleFunc("/resultados", resultController.GetResults(db)).Methods("GET")
	api.HandleFunc("/resultados", resultController.CreateResult(db)).Methods("POST")
	api.HandleFunc("/resultados/lote", resultController.CreateBatch(db)).Methods("POST")
	api.HandleFunc("/resultados/calcular-classificacoes/{idOlimpiada}", resultController.CalculateClassifications(db)).Methods("POST")
	api.HandleFunc("/resultados/ranking/{idOlimpiada}", resultController.GetRankingGeneral(db)).Methods("GET")
	api.HandleFunc("/resultados/ranking/{idOlimpiada}/serie/{idSerie}", resultController.GetRankingBySeries(db)).Methods("GET")
	api.HandleFunc("/resultados/medalhistas/{idOlimpiada}", resultController.GetMedalists(db)).Methods("GET")
	api.HandleFunc("/resultados/{id}", resultController.GetResult(db)).Methods("GET")
	api.HandleFunc("/resultados/{id}", resultController.UpdateResult(db)).Methods("PUT")
	api.HandleFunc("/resultados/{id}", resultController.DeleteResult(db)).Methods("DELETE")

	api.HandleFunc("/sincronizacao/alunos", syncController.SyncStudents(db)).Methods("POST")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	log.WithField("port", port).Info("server started")
	log.Fatal(http.ListenAndServe(":"+port, router))
}
