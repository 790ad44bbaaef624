package main

import (
	"fmt"
	"strings"

	"reldb/internal/execengine"
	"reldb/internal/schema"
	"reldb/internal/storeengine"
)

func main() {
	fmt.Println("reldb starting…")

	store, err := storeengine.Open(storeengine.Options{BaseDir: "./data"})
	if err != nil {
		fmt.Println("ERROR:", err)
		return
	}

	eng := execengine.New(store)

	if err := eng.CreateTable("users", []schema.Column{
		{Name: "id", Type: schema.TypeInt, IsPrimaryKey: true},
		{Name: "name", Type: schema.TypeString},
		{Name: "active", Type: schema.TypeInt},
	}); err != nil {
		fmt.Println("CreateTable ERROR:", err)
		return
	}
	fmt.Println("Table 'users' created.")

	if err := eng.Insert("users", []string{"1", "Alice", "1"}); err != nil {
		fmt.Println("Insert ERROR:", err)
		return
	}
	if err := eng.Insert("users", []string{"2", "Bob", "0"}); err != nil {
		fmt.Println("Insert ERROR:", err)
		return
	}
	fmt.Println("Inserted 2 rows into 'users'.")

	fmt.Println("\nSelecting all from 'users':")
	rows, err := eng.SeqScan("users")
	if err != nil {
		fmt.Println("SeqScan ERROR:", err)
		return
	}

	cols := store.GetTableColumns("users")
	fmt.Println(strings.Join(cols, " | "))
	for _, row := range rows {
		fmt.Println(strings.Join(row, " | "))
	}
}
