// Convenience tools for manipulating the player profiles registered in the
// configured server database.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nxyexiong/CardGameDemo/internal/core"
	"github.com/nxyexiong/CardGameDemo/internal/core/data"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Player profile management tools",
}

var profileAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Registers new player profiles in the database",
	Run:   ProfileAddCommand,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the registered player profiles",
	Run:   ProfileListCommand,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Deletes player profiles from the database",
	Run:   ProfileDeleteCommand,
}

func initDB() *gorm.DB {
	cfg := core.LoadConfig(ConfigFlag)

	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Database.Engine) {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.Filename)
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL())
	default:
		fmt.Println("unsupported database engine:", cfg.Database.Engine)
		os.Exit(1)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		fmt.Println("error connecting to database:", err.Error())
		os.Exit(1)
	}
	if err := db.AutoMigrate(&data.Profile{}); err != nil {
		fmt.Println("error migrating database:", err.Error())
		os.Exit(1)
	}
	return db
}

func ProfileAddCommand(cmd *cobra.Command, args []string) {
	db := initDB()

	profileID, args := popArg(args, "Profile ID")
	displayName, _ := popArg(args, "Display name")

	profile, err := data.FindProfileByProfileID(db, profileID)
	if err != nil {
		fmt.Println("error finding profile:", err)
		return
	} else if profile != nil {
		fmt.Printf("profile '%s' already exists; skipping\n", profileID)
		return
	}

	if err := data.CreateProfile(db, &data.Profile{
		ProfileID:   profileID,
		DisplayName: displayName,
	}); err != nil {
		fmt.Println("error creating profile:", err)
		return
	}

	fmt.Printf("registered profile '%s'\n", profileID)
}

func ProfileListCommand(cmd *cobra.Command, args []string) {
	db := initDB()

	profiles, err := data.ListProfiles(db)
	if err != nil {
		fmt.Println("error listing profiles:", err)
		return
	}

	for seat, profile := range profiles {
		fmt.Printf("seat %d: %s (%s)\n", seat, profile.ProfileID, profile.DisplayName)
	}
}

func ProfileDeleteCommand(cmd *cobra.Command, args []string) {
	db := initDB()

	profileID, _ := popArg(args, "Profile ID")

	profile, err := data.FindProfileByProfileID(db, profileID)
	if err != nil {
		fmt.Println("error finding profile:", err)
		return
	} else if profile == nil {
		fmt.Printf("profile '%s' does not exist\n", profileID)
		return
	}

	if err := data.DeleteProfile(db, profile); err != nil {
		fmt.Println("error deleting profile:", err)
		return
	}
	fmt.Println("deleted profile")
}

func popArg(args []string, prompt string) (string, []string) {
	if len(args) == 1 {
		return args[0], nil
	} else if len(args) > 1 {
		return args[0], args[1:]
	}

	fmt.Printf("%s: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return scanner.Text(), args
}
